// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. The other fields are defined by the types of the fields of [Config] and nested struct types.
For example, a valid config file is as follows:

	options:
	  log-level: 4
	  max-paths: 500
	  try-acquire-adds: true
	classifier:
	  acquire:
	    - enter_critical
	  release:
	    - leave_critical

# Classifier names

The names listed under classifier are exact callee names. For Go programs, the name of a function is the name printed
by the SSA package, e.g. "(*sync.Mutex).Lock" or "example.com/pkg.Acquire".

# Unsafe options

Some options make the lock-state analysis optimistic: try-acquire-adds assumes every try-lock succeeds, and setting
indirect-clears to false assumes indirect calls do not release the locks held by the caller.
*/
package config
