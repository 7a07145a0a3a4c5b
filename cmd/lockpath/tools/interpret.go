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

package tools

import "regexp"

// Captures errors happening before any analysis starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the kind of error that happen when you put a flag at the end instead of go files
var namedFilesMustBeGoFiles = regexp.MustCompile("-: named files must be .go files: -(\\w)")

// Captures errors in programs written in the YAML program format
var invalidProgramFile = regexp.MustCompile("unknown (successor|entry block|op)|needs a callee|duplicate block")

// Captures errors in the config file
var invalidConfig = regexp.MustCompile("failed to load config file")

// Captures requests for passes that do not exist
var unknownPass = regexp.MustCompile("unknown pass")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if namedFilesMustBeGoFiles.MatchString(errMsg) {
			return "all command line flags should be before the path to the Go files to analyze"
		}
		if invalidProgramFile.MatchString(errMsg) {
			return "check the blocks and instructions of the program file; every successor must be a declared block"
		}
		return "make sure you have provided the right arguments to load a Go program or a YAML program file"
	}
	if invalidConfig.MatchString(errMsg) {
		return "check that the config file exists and that its option names are spelled correctly"
	}
	if unknownPass.MatchString(errMsg) {
		return "run `lockpath passes` to list the available passes"
	}
	return ""
}
