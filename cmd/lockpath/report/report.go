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

// Package report prints the results of the lockpath analyses, either as text for a terminal or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/awslabs/ar-go-lockpath/analysis"
	"github.com/awslabs/ar-go-lockpath/internal/formatutil"
)

// CriticalWarnPercent is the share of instructions in critical sections above which the share is highlighted.
const CriticalWarnPercent = 50.0

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal results: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// WriteFunction writes the report of one function. At most pathsLimit paths are printed when pathsLimit is positive.
func WriteFunction(w io.Writer, r analysis.FunctionReport, pathsLimit int) {
	fmt.Fprintf(w, "%s %s (%d blocks, %d instructions)\n", formatutil.Bold("function"),
		formatutil.Sanitize(r.Function), r.Blocks, r.Instructions)
	if r.Blocks == 0 {
		fmt.Fprintf(w, "  %s\n", formatutil.Faint("empty"))
		return
	}
	if !r.Converged {
		fmt.Fprintf(w, "  %s after %d iterations\n", formatutil.Red("lock state did not converge"), r.SolverIterations)
	}
	for _, b := range r.Locks {
		if len(b.In) == 0 && len(b.Out) == 0 {
			continue
		}
		fmt.Fprintf(w, "  block %-12s in: {%s} out: {%s}\n", b.Block, strings.Join(b.In, ", "),
			strings.Join(b.Out, ", "))
	}
	fmt.Fprintf(w, "  critical: %d/%d instructions (%s)\n", r.CriticalInstructions, r.Instructions,
		formatutil.Percent(r.CriticalPercent, CriticalWarnPercent))
	if r.Nested {
		fmt.Fprintf(w, "  %s up to %d locks held at once\n", formatutil.Yellow("nested:"), r.MaxNesting)
	}
	if len(r.LockUsage) > 0 {
		locks := make([]string, 0, len(r.LockUsage))
		for lock := range r.LockUsage {
			locks = append(locks, lock)
		}
		sort.Strings(locks)
		for i, lock := range locks {
			locks[i] = fmt.Sprintf("%s: %d", lock, r.LockUsage[lock])
		}
		fmt.Fprintf(w, "  lock usage: %s\n", strings.Join(locks, ", "))
	}

	limit := ""
	if r.ReachedLimit {
		limit = formatutil.Yellow(" (limit reached)")
	}
	fmt.Fprintf(w, "  paths: %d%s, %s, max chain %d, mean chain %.2f\n", r.NumPaths, limit,
		formatutil.Status(r.UnbalancedPaths == 0, fmt.Sprintf("%d unbalanced", r.UnbalancedPaths)),
		r.MaxChain, r.MeanChain)
	for i, p := range r.Paths {
		if pathsLimit > 0 && i >= pathsLimit {
			fmt.Fprintf(w, "    %s\n", formatutil.Faint(fmt.Sprintf("... %d more", len(r.Paths)-i)))
			break
		}
		fmt.Fprintf(w, "    %s | depth %d | fan-out %d | chain %d\n", p.Path, p.Depth, p.FanOut, p.ChainLength)
	}
}

// WriteStatistics writes the module statistics.
func WriteStatistics(w io.Writer, s analysis.Statistics) {
	fmt.Fprintf(w, "%s\n", formatutil.Bold("Statistics"))
	fmt.Fprintf(w, "  # functions          : %d (%d non-empty)\n", s.NumberOfFunctions, s.NumberOfNonemptyFunctions)
	fmt.Fprintf(w, "  # blocks             : %d\n", s.NumberOfBlocks)
	fmt.Fprintf(w, "  # instructions       : %d\n", s.NumberOfInstructions)
	fmt.Fprintf(w, "  # calls              : %d (%d indirect)\n", s.NumberOfCalls, s.NumberOfIndirectCalls)
	classes := make([]string, 0, len(s.Calls))
	for class := range s.Calls {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Fprintf(w, "  # %-19s: %d\n", class, s.Calls[class])
	}
}

// WriteResult writes the summary of a pass result. The results of a function pass run on a whole module are
// written one per line.
func WriteResult(w io.Writer, res analysis.PassResult) {
	if mr, ok := res.(*analysis.ModuleResult); ok {
		fmt.Fprintf(w, "%s\n", formatutil.Bold(mr.Summary()))
		for _, r := range mr.Results {
			fmt.Fprintf(w, "  %s\n", r.Summary())
		}
		return
	}
	fmt.Fprintf(w, "%s\n", res.Summary())
}
