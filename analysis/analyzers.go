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

// Package analysis runs the lock, path and dependency analyses on the functions of a module.
//
// The analyses are exposed as passes (see [Registry]). [AnalyzeFunction] runs the solver, the path enumerator and
// the three path analyzers once on a function and collects all their outputs in a [FunctionReport];
// [AnalyzeModule] does the same for every function of a module, in parallel.
package analysis

import (
	"time"

	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/depchain"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/lockdepth"
	"github.com/awslabs/ar-go-lockpath/analysis/lockset"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
	"github.com/awslabs/ar-go-lockpath/analysis/taint"
	"github.com/awslabs/ar-go-lockpath/internal/funcutil"
)

// RunContext contains everything the passes need to analyze a function. A RunContext is read-only once created
// and can be shared by concurrent analyses; all the analysis state is created per function.
type RunContext struct {
	Config     *config.Config
	Logger     *config.LogGroup
	Classifier *classify.Classifier
	DepthNames classify.DepthNames
	Solver     lockset.Options
	Enumerator paths.Enumerator
	// Oracle answers memory dependence queries inside blocks. If nil, instructions of the same block are never
	// memory dependent.
	Oracle ir.Oracle
}

// NewRunContext returns the run context set by cfg. The classifier tables are extended with the names of the
// config's classifier section.
func NewRunContext(cfg *config.Config, logger *config.LogGroup) *RunContext {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	c := classify.New(cfg.FoldCase)
	c.Table.Add(classify.Acquire, cfg.Classifier.Acquire...)
	c.Table.Add(classify.Release, cfg.Classifier.Release...)
	c.Table.Add(classify.TryAcquire, cfg.Classifier.TryAcquire...)
	c.Table.Add(classify.InputSource, cfg.Classifier.InputSources...)
	depthNames := classify.DefaultDepthNames()
	for _, name := range cfg.Classifier.DepthAcquire {
		depthNames.Acquire[name] = true
	}
	for _, name := range cfg.Classifier.DepthRelease {
		depthNames.Release[name] = true
	}
	return &RunContext{
		Config:     cfg,
		Logger:     logger,
		Classifier: c,
		DepthNames: depthNames,
		Solver:     lockset.OptionsFromConfig(cfg, c, logger),
		Enumerator: paths.NewEnumerator(cfg, logger),
		Oracle:     ir.AddressOracle{},
	}
}

// BlockLocks are the locks held at the entry and exit of a block.
type BlockLocks struct {
	Block string   `json:"block"`
	In    []string `json:"in"`
	Out   []string `json:"out"`
}

// PathReport contains the results of the path analyzers on one path.
type PathReport struct {
	Path string `json:"path"`
	// Depth is the lock depth at the end of the path
	Depth      int  `json:"depth"`
	Unbalanced bool `json:"unbalanced"`
	// FanOut is the number of calls reached by tainted data
	FanOut int `json:"fan-out"`
	// ChainLength is the length of the longest dependency chain on the path
	ChainLength int `json:"chain-length"`
}

// FunctionReport collects the outputs of all the analyses on a function.
type FunctionReport struct {
	Function     string `json:"function"`
	Blocks       int    `json:"blocks"`
	Instructions int    `json:"instructions"`

	// Locks held at every block, in block order
	Locks            []BlockLocks `json:"locks"`
	Converged        bool         `json:"converged"`
	SolverIterations int          `json:"solver-iterations"`

	CriticalInstructions int            `json:"critical-instructions"`
	CriticalPercent      float64        `json:"critical-percent"`
	Nested               bool           `json:"nested"`
	MaxNesting           int            `json:"max-nesting"`
	LockUsage            map[string]int `json:"lock-usage"`

	NumPaths     int          `json:"num-paths"`
	ReachedLimit bool         `json:"reached-limit"`
	Paths        []PathReport `json:"paths"`

	UnbalancedPaths int     `json:"unbalanced-paths"`
	MaxChain        int     `json:"max-chain"`
	MeanChain       float64 `json:"mean-chain"`

	Duration time.Duration `json:"-"`
}

// AnalyzeFunction runs every function-level analysis on f. A function without blocks yields an empty report.
func AnalyzeFunction(ctx *RunContext, f *ir.Function) FunctionReport {
	start := time.Now()
	report := FunctionReport{
		Function:     f.Name,
		Blocks:       len(f.Blocks),
		Instructions: f.NumInstrs(),
		LockUsage:    map[string]int{},
		Converged:    true,
	}
	if f.Empty() {
		ctx.Logger.Warnf("function %s is empty, nothing to analyze", f.Name)
		return report
	}

	solved := lockset.Solve(f, ctx.Solver)
	report.Converged = solved.Converged
	report.SolverIterations = solved.Iterations
	for b := range f.Blocks {
		id := ir.BlockID(b)
		report.Locks = append(report.Locks, BlockLocks{
			Block: f.Blocks[b].Name,
			In:    solved.In[id].Names(f),
			Out:   solved.Out[id].Names(f),
		})
	}
	stats := lockset.Stats(solved)
	report.CriticalInstructions = stats.CriticalInstructions
	report.CriticalPercent = stats.CriticalPercent()
	report.Nested = stats.Nested
	report.MaxNesting = stats.MaxDepth
	for lock, n := range stats.LockUsage {
		report.LockUsage[f.ValueName(lock)] += n
	}
	if stats.Nested {
		ctx.Logger.Warnf("function %s holds up to %d locks at once", f.Name, stats.MaxDepth)
	}

	enumerated := ctx.Enumerator.Run(f)
	report.NumPaths = len(enumerated.Paths)
	report.ReachedLimit = enumerated.ReachedLimit
	lengths := make([]int, 0, len(enumerated.Paths))
	for _, p := range enumerated.Paths {
		pr := analyzePath(ctx, f, p)
		if pr.Unbalanced {
			report.UnbalancedPaths++
		}
		lengths = append(lengths, pr.ChainLength)
		report.Paths = append(report.Paths, pr)
	}
	summary := depchain.Aggregate(lengths)
	report.MaxChain = summary.Max
	report.MeanChain = summary.Mean
	report.Duration = time.Since(start)
	ctx.Logger.Debugf("%-10s %-60s | %d paths | %.2f s", "Analyzed", f.Name, report.NumPaths,
		report.Duration.Seconds())
	return report
}

func analyzePath(ctx *RunContext, f *ir.Function, p paths.Path) PathReport {
	depth := lockdepth.TrackWith(f, p, ctx.DepthNames)
	return PathReport{
		Path:        p.Format(f),
		Depth:       depth.Depth,
		Unbalanced:  depth.Unbalanced,
		FanOut:      taint.FanOut(f, p, ctx.Classifier),
		ChainLength: depchain.CriticalPathLength(depchain.Build(f, p, ctx.Oracle)),
	}
}

// AnalyzeModule analyzes every function of m using ctx.Config.NumRoutines goroutines. Reports are in module
// order.
func AnalyzeModule(ctx *RunContext, m *ir.Module) []FunctionReport {
	ctx.Logger.Infof("Analyzing %d functions ...", len(m.Functions))
	start := time.Now()
	numRoutines := ctx.Config.NumRoutines
	if numRoutines < 1 {
		numRoutines = 1
	}
	reports := funcutil.MapParallel(m.Functions, func(f *ir.Function) FunctionReport {
		return AnalyzeFunction(ctx, f)
	}, numRoutines)
	ctx.Logger.Infof("Analysis done (%.2f s).", time.Since(start).Seconds())
	return reports
}
