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
	"io"
	"strings"
	"text/tabwriter"

	"github.com/awslabs/ar-go-lockpath/analysis"
	"github.com/awslabs/ar-go-lockpath/cmd/lockpath/report"
	"github.com/awslabs/ar-go-lockpath/cmd/lockpath/tools"
	"github.com/awslabs/ar-go-lockpath/internal/formatutil"
)

const allUsage = `Run every function analysis on a program.
Usage:
  lockpath all [options] <package path(s) | program.yaml>`

const runUsage = `Run a single pass on a program.
Usage:
  lockpath run -pass <name> [options] <package path(s) | program.yaml>`

const callgraphUsage = `Print the call graph metrics of a program.
Usage:
  lockpath callgraph [options] <package path(s) | program.yaml>`

const passUsage = `Run the %s analysis (pass %s) on every function of a program.
Usage:
  lockpath %[1]s [options] <package path(s) | program.yaml>`

var callgraphPasses = []string{"inter-proc-fan-out", "feedback-resonance", "flow-density"}

func newRunFlags(args []string) (tools.CommonFlags, string, error) {
	flags := tools.NewUnparsedCommonFlags("run")
	pass := flags.FlagSet.String("pass", "", "name of the pass to run (see lockpath passes)")
	tools.SetUsage(flags.FlagSet, runUsage)
	parsed, err := flags.Parse(args)
	if err != nil {
		return tools.CommonFlags{}, "", err
	}
	if *pass == "" {
		return tools.CommonFlags{}, "", fmt.Errorf("unknown pass %q: -pass is required", *pass)
	}
	return parsed, *pass, nil
}

type allOutput struct {
	Functions  []analysis.FunctionReport `json:"functions"`
	Statistics analysis.Statistics       `json:"statistics"`
}

func runAll(w io.Writer, flags tools.CommonFlags) error {
	ctx, m, err := tools.Setup(flags)
	if err != nil {
		return err
	}
	out := allOutput{
		Functions:  analysis.AnalyzeModule(ctx, m),
		Statistics: analysis.ModuleStatistics(m, ctx.Classifier),
	}
	if flags.JSON {
		return report.WriteJSON(w, out)
	}
	for _, r := range out.Functions {
		report.WriteFunction(w, r, ctx.Config.ReportPathsLimit)
	}
	report.WriteStatistics(w, out.Statistics)
	return nil
}

func runPasses(w io.Writer, flags tools.CommonFlags, names []string) error {
	registry := analysis.DefaultRegistry()
	for _, name := range names {
		if _, _, ok := registry.Lookup(name); !ok {
			return fmt.Errorf("unknown pass %q", name)
		}
	}
	ctx, m, err := tools.Setup(flags)
	if err != nil {
		return err
	}
	results := make(map[string]analysis.PassResult, len(names))
	for _, name := range names {
		ctx.Logger.Debugf("Running pass %s", name)
		res, err := registry.RunModule(ctx, name, m)
		if err != nil {
			return err
		}
		results[name] = res
	}
	if flags.JSON {
		if len(names) == 1 {
			return report.WriteJSON(w, results[names[0]])
		}
		return report.WriteJSON(w, results)
	}
	for _, name := range names {
		report.WriteResult(w, results[name])
	}
	return nil
}

func printPasses(w io.Writer) {
	registry := analysis.DefaultRegistry()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range registry.Names() {
		fp, mp, _ := registry.Lookup(name)
		kind, doc := "function", ""
		if mp != nil {
			kind, doc = "module", mp.Doc()
		} else {
			doc = fp.Doc()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", formatutil.Bold(name), kind, strings.TrimSpace(doc))
	}
	tw.Flush()
}
