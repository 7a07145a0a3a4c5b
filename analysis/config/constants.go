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

package config

const (
	// DefaultMaxPaths is the default bound on the number of paths enumerated per function
	DefaultMaxPaths = 10000
	// DefaultMaxLoopIterations is the default number of extra visits of a block allowed on a single path
	DefaultMaxLoopIterations = 2
	// DefaultMaxSolverIterations is the default iteration ceiling of the lock-state solver
	DefaultMaxSolverIterations = 10000
	// DefaultResonanceThreshold is the default instruction count above which a call graph cycle resonates
	DefaultResonanceThreshold = 10
	// DefaultReportPathsLimit is the default number of per-path lines printed per function
	DefaultReportPathsLimit = 20
)
