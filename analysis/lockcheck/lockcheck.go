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

// Package lockcheck provides a go/analysis analyzer reporting functions that may return with a lock held or that
// do not pair their lock and unlock calls on every path.
package lockcheck

import (
	"flag"
	"io"
	"strings"

	lockpath "github.com/awslabs/ar-go-lockpath/analysis"
	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/lang"
	"github.com/awslabs/ar-go-lockpath/analysis/lockdepth"
	"github.com/awslabs/ar-go-lockpath/analysis/lockset"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"
)

// Flags for the analyzer.
var (
	maxPaths          int
	maxLoopIterations int
	acquireNames      string
	releaseNames      string
)

func init() {
	Analyzer.Flags.IntVar(&maxPaths, "max-paths", config.DefaultMaxPaths,
		"maximum number of paths explored per function")
	Analyzer.Flags.IntVar(&maxLoopIterations, "max-loop-iterations", config.DefaultMaxLoopIterations,
		"number of times a path may go around a loop")
	Analyzer.Flags.StringVar(&acquireNames, "acquire", "",
		"comma-separated list of additional lock acquisition functions (e.g. (*pkg.Lock).Acquire)")
	Analyzer.Flags.StringVar(&releaseNames, "release", "",
		"comma-separated list of additional lock release functions")
}

// Analyzer reports lock imbalances in the functions of a package.
var Analyzer = &analysis.Analyzer{
	Name:     "lockcheck",
	Doc:      "checks that locks acquired in a function are released on every path",
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
	Run:      run,
	Flags:    flag.FlagSet{},
}

const (
	unbalancedMessage = "unbalanced lock/unlock pairing"
	heldMessage       = "lock may be held at return"
)

func run(pass *analysis.Pass) (any, error) {
	ssaInfo := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	ctx := newRunContext()
	for _, fn := range ssaInfo.SrcFuncs {
		check(pass, ctx, fn)
	}
	return nil, nil
}

func newRunContext() *lockpath.RunContext {
	cfg := config.NewDefault()
	cfg.MaxPaths = maxPaths
	cfg.MaxLoopIterations = maxLoopIterations
	cfg.Classifier.Acquire = splitNames(acquireNames)
	cfg.Classifier.Release = splitNames(releaseNames)
	cfg.Classifier.DepthAcquire = cfg.Classifier.Acquire
	cfg.Classifier.DepthRelease = cfg.Classifier.Release
	return lockpath.NewRunContext(cfg, config.NewLogGroupAt(config.ErrLevel, io.Discard))
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func check(pass *analysis.Pass, ctx *lockpath.RunContext, fn *ssa.Function) {
	f := lang.Lower(fn)
	if f.Empty() {
		return
	}
	for _, p := range ctx.Enumerator.Run(f).Paths {
		if lockdepth.TrackWith(f, p, ctx.DepthNames).Unbalanced {
			pass.Reportf(fn.Pos(), unbalancedMessage)
			break
		}
	}

	solved := lockset.Solve(f, ctx.Solver)
	for b := range f.Blocks {
		if !f.Blocks[b].IsExit() || len(solved.Out[ir.BlockID(b)]) == 0 {
			continue
		}
		if _, ok := lang.LastInstr(fn.Blocks[b]).(*ssa.Return); !ok {
			continue
		}
		// one report per function, at its declaration
		pass.Reportf(fn.Pos(), "%s: %s", heldMessage, solved.Out[ir.BlockID(b)].Format(f))
		return
	}
}
