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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-lockpath/analysis"
	"github.com/awslabs/ar-go-lockpath/cmd/lockpath/tools"
)

const usage = `Lockpath: lock state and path analyses for Go programs
Usage:
  lockpath [tool] [options] <Go package(s) | program.yaml>
Tools:
  - all: runs every function analysis and prints a report per function along with module statistics
  - run: runs the pass given by -pass on every function of the program
  - passes: lists the available passes
  - critical-section: prints the share of instructions executed while a lock is held
  - paths: enumerates the paths of each function
  - lock-depth: prints the lock depth at the end of each path
  - fan-out: prints the number of calls reached by external input along each path
  - max-path: prints the length of the longest dependency chain along each path
  - function-max-path: prints the length of the longest dependency chain over each whole function
  - path-flow-density: prints the flow density of each path
  - callgraph: prints the call graph fan-out, feedback resonance and flow density
Examples:
  Report on a package: lockpath all --config=config.yaml ./...
  Run a single pass: lockpath run -pass lock-depth program.yaml`

var shortcuts = map[string]string{
	"critical-section":  "critical-section",
	"paths":             "path-enumerator",
	"lock-depth":        "lock-depth",
	"fan-out":           "fan-out",
	"max-path":          "max-path",
	"function-max-path": "function-max-path",
	"path-flow-density": "path-flow-density",
}

//gocyclo:ignore
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "all":
		flags, err := tools.NewCommonFlags("all", args, allUsage)
		if err != nil {
			errExit(err)
		}
		if err := runAll(os.Stdout, flags); err != nil {
			errExit(err)
		}
	case "run":
		flags, pass, err := newRunFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := runPasses(os.Stdout, flags, []string{pass}); err != nil {
			errExit(err)
		}
	case "passes":
		printPasses(os.Stdout)
	case "callgraph":
		flags, err := tools.NewCommonFlags("callgraph", args, callgraphUsage)
		if err != nil {
			errExit(err)
		}
		if err := runPasses(os.Stdout, flags, callgraphPasses); err != nil {
			errExit(err)
		}
	default:
		pass, ok := shortcuts[cmd]
		if !ok {
			fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
			fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
			os.Exit(2)
		}
		flags, err := tools.NewCommonFlags(cmd, args, fmt.Sprintf(passUsage, cmd, pass))
		if err != nil {
			errExit(err)
		}
		if err := runPasses(os.Stdout, flags, []string{pass}); err != nil {
			errExit(err)
		}
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
