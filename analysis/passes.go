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

package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awslabs/ar-go-lockpath/analysis/cgmetrics"
	"github.com/awslabs/ar-go-lockpath/analysis/depchain"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/lockdepth"
	"github.com/awslabs/ar-go-lockpath/analysis/lockset"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
	"github.com/awslabs/ar-go-lockpath/analysis/taint"
	"github.com/awslabs/ar-go-lockpath/internal/funcutil"
)

// PassResult is the result of a pass. Results are plain data and can be marshalled to JSON.
type PassResult interface {
	// Summary is a one-line description of the result
	Summary() string
}

// A Pass is an analysis of a single function.
type Pass interface {
	Name() string
	Doc() string
	Run(ctx *RunContext, f *ir.Function) (PassResult, error)
}

// A ModulePass is an analysis of a whole module.
type ModulePass interface {
	Name() string
	Doc() string
	RunModule(ctx *RunContext, m *ir.Module) (PassResult, error)
}

// Registry lists the available passes by name.
type Registry struct {
	Function map[string]Pass
	Module   map[string]ModulePass
}

// DefaultRegistry returns the registry of all the passes of this package.
func DefaultRegistry() *Registry {
	r := &Registry{Function: map[string]Pass{}, Module: map[string]ModulePass{}}
	for _, p := range []Pass{
		criticalSectionPass{}, pathEnumeratorPass{}, lockDepthPass{}, fanOutPass{}, maxPathPass{},
		functionMaxPathPass{}, pathFlowDensityPass{},
	} {
		r.Function[p.Name()] = p
	}
	for _, p := range []ModulePass{interProcFanOutPass{}, feedbackResonancePass{}, flowDensityPass{}} {
		r.Module[p.Name()] = p
	}
	return r
}

// Lookup returns the function pass or the module pass named name. Exactly one of the two is non-nil when ok is
// true.
func (r *Registry) Lookup(name string) (fp Pass, mp ModulePass, ok bool) {
	if p, found := r.Function[name]; found {
		return p, nil, true
	}
	if p, found := r.Module[name]; found {
		return nil, p, true
	}
	return nil, nil, false
}

// Names returns the names of all the passes, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Function)+len(r.Module))
	for name := range r.Function {
		names = append(names, name)
	}
	for name := range r.Module {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunModule runs the pass named name on m. A function pass is run on every function of m, in parallel, and the
// result is a ModuleResult.
func (r *Registry) RunModule(ctx *RunContext, name string, m *ir.Module) (PassResult, error) {
	fp, mp, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown pass %q", name)
	}
	if mp != nil {
		return mp.RunModule(ctx, m)
	}
	type out struct {
		res PassResult
		err error
	}
	outs := funcutil.MapParallel(m.Functions, func(f *ir.Function) out {
		res, err := fp.Run(ctx, f)
		return out{res, err}
	}, ctx.Config.NumRoutines)
	res := &ModuleResult{Pass: name}
	for i, o := range outs {
		if o.err != nil {
			return nil, fmt.Errorf("pass %s failed on %s: %w", name, m.Functions[i].Name, o.err)
		}
		res.Results = append(res.Results, o.res)
	}
	return res, nil
}

// ModuleResult is the result of a function pass on all the functions of a module.
type ModuleResult struct {
	Pass    string       `json:"pass"`
	Results []PassResult `json:"results"`
}

// Summary implements PassResult.
func (r *ModuleResult) Summary() string {
	return fmt.Sprintf("%s: %d functions", r.Pass, len(r.Results))
}

// critical-section

type criticalSectionPass struct{}

// CriticalSectionResult is the result of the critical-section pass.
type CriticalSectionResult struct {
	Function             string         `json:"function"`
	Instructions         int            `json:"instructions"`
	CriticalInstructions int            `json:"critical-instructions"`
	CriticalPercent      float64        `json:"critical-percent"`
	Nested               bool           `json:"nested"`
	MaxNesting           int            `json:"max-nesting"`
	LockUsage            map[string]int `json:"lock-usage"`
	Locks                []BlockLocks   `json:"locks"`
	Converged            bool           `json:"converged"`
}

func (criticalSectionPass) Name() string { return "critical-section" }

func (criticalSectionPass) Doc() string {
	return "computes the locks held at every block and the share of instructions inside critical sections"
}

func (criticalSectionPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	res := &CriticalSectionResult{Function: f.Name, Instructions: f.NumInstrs(), LockUsage: map[string]int{},
		Converged: true}
	if f.Empty() {
		return res, nil
	}
	solved := lockset.Solve(f, ctx.Solver)
	stats := lockset.Stats(solved)
	res.CriticalInstructions = stats.CriticalInstructions
	res.CriticalPercent = stats.CriticalPercent()
	res.Nested = stats.Nested
	res.MaxNesting = stats.MaxDepth
	res.Converged = solved.Converged
	for lock, n := range stats.LockUsage {
		res.LockUsage[f.ValueName(lock)] += n
	}
	for b := range f.Blocks {
		res.Locks = append(res.Locks, BlockLocks{
			Block: f.Blocks[b].Name,
			In:    solved.In[ir.BlockID(b)].Names(f),
			Out:   solved.Out[ir.BlockID(b)].Names(f),
		})
	}
	return res, nil
}

// Summary implements PassResult.
func (r *CriticalSectionResult) Summary() string {
	s := fmt.Sprintf("%s: %d/%d instructions in critical sections (%.1f%%)", r.Function,
		r.CriticalInstructions, r.Instructions, r.CriticalPercent)
	if r.Nested {
		s += fmt.Sprintf(", nested locks (depth %d)", r.MaxNesting)
	}
	return s
}

// path-enumerator

type pathEnumeratorPass struct{}

// PathsResult is the result of the path-enumerator pass.
type PathsResult struct {
	Function     string   `json:"function"`
	NumPaths     int      `json:"num-paths"`
	ReachedLimit bool     `json:"reached-limit"`
	Paths        []string `json:"paths"`
}

func (pathEnumeratorPass) Name() string { return "path-enumerator" }

func (pathEnumeratorPass) Doc() string {
	return "lists the paths from the entry to the exits of the function, with bounded loop unrolling"
}

func (pathEnumeratorPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	enumerated := ctx.Enumerator.Run(f)
	return &PathsResult{
		Function:     f.Name,
		NumPaths:     len(enumerated.Paths),
		ReachedLimit: enumerated.ReachedLimit,
		Paths: funcutil.Map(enumerated.Paths, func(p paths.Path) string {
			return p.Format(f)
		}),
	}, nil
}

// Summary implements PassResult.
func (r *PathsResult) Summary() string {
	if r.ReachedLimit {
		return fmt.Sprintf("%s: %d paths (limit reached)", r.Function, r.NumPaths)
	}
	return fmt.Sprintf("%s: %d paths", r.Function, r.NumPaths)
}

// lock-depth

type lockDepthPass struct{}

// LockDepthResult is the result of the lock-depth pass.
type LockDepthResult struct {
	Function   string `json:"function"`
	Depths     []int  `json:"depths"`
	Unbalanced int    `json:"unbalanced"`
}

func (lockDepthPass) Name() string { return "lock-depth" }

func (lockDepthPass) Doc() string {
	return "counts acquires minus releases along every path and reports the unbalanced paths"
}

func (lockDepthPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	res := &LockDepthResult{Function: f.Name}
	for _, p := range ctx.Enumerator.Run(f).Paths {
		d := lockdepth.TrackWith(f, p, ctx.DepthNames)
		res.Depths = append(res.Depths, d.Depth)
		if d.Unbalanced {
			res.Unbalanced++
		}
	}
	return res, nil
}

// Summary implements PassResult.
func (r *LockDepthResult) Summary() string {
	return fmt.Sprintf("%s: %d of %d paths unbalanced", r.Function, r.Unbalanced, len(r.Depths))
}

// fan-out

type fanOutPass struct{}

// TaintFanOutResult is the result of the fan-out pass.
type TaintFanOutResult struct {
	Function string `json:"function"`
	FanOut   []int  `json:"fan-out"`
	Max      int    `json:"max"`
}

func (fanOutPass) Name() string { return "fan-out" }

func (fanOutPass) Doc() string {
	return "counts, on every path, the calls receiving data derived from the parameters or from input sources"
}

func (fanOutPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	res := &TaintFanOutResult{Function: f.Name}
	for _, p := range ctx.Enumerator.Run(f).Paths {
		n := taint.FanOut(f, p, ctx.Classifier)
		res.FanOut = append(res.FanOut, n)
		res.Max = max(res.Max, n)
	}
	return res, nil
}

// Summary implements PassResult.
func (r *TaintFanOutResult) Summary() string {
	return fmt.Sprintf("%s: max tainted fan-out %d over %d paths", r.Function, r.Max, len(r.FanOut))
}

// max-path

type maxPathPass struct{}

// ChainResult is the result of the max-path pass.
type ChainResult struct {
	Function string  `json:"function"`
	Lengths  []int   `json:"lengths"`
	Max      int     `json:"max"`
	Mean     float64 `json:"mean"`
}

func (maxPathPass) Name() string { return "max-path" }

func (maxPathPass) Doc() string {
	return "computes the longest chain of dependent instructions on every path"
}

func (maxPathPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	res := &ChainResult{Function: f.Name}
	for _, p := range ctx.Enumerator.Run(f).Paths {
		res.Lengths = append(res.Lengths, depchain.CriticalPathLength(depchain.Build(f, p, ctx.Oracle)))
	}
	summary := depchain.Aggregate(res.Lengths)
	res.Max = summary.Max
	res.Mean = summary.Mean
	return res, nil
}

// Summary implements PassResult.
func (r *ChainResult) Summary() string {
	return fmt.Sprintf("%s: longest dependency chain %d (mean %.2f over %d paths)", r.Function, r.Max, r.Mean,
		len(r.Lengths))
}

// function-max-path

type functionMaxPathPass struct{}

// FunctionChainResult is the result of the function-max-path pass.
type FunctionChainResult struct {
	Function     string `json:"function"`
	Blocks       int    `json:"blocks"`
	Instructions int    `json:"instructions"`
	MaxPath      int    `json:"max-path"`
}

func (functionMaxPathPass) Name() string { return "function-max-path" }

func (functionMaxPathPass) Doc() string {
	return "computes the longest chain of dependent instructions over the whole function, ignoring paths"
}

func (functionMaxPathPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	return &FunctionChainResult{
		Function:     f.Name,
		Blocks:       len(f.Blocks),
		Instructions: f.NumInstrs(),
		MaxPath:      depchain.CriticalPathLength(depchain.BuildFunction(f, ctx.Oracle)),
	}, nil
}

// Summary implements PassResult.
func (r *FunctionChainResult) Summary() string {
	return fmt.Sprintf("%s: %d blocks, %d instructions, max path %d", r.Function, r.Blocks, r.Instructions,
		r.MaxPath)
}

// path-flow-density

type pathFlowDensityPass struct{}

// PathDensityResult is the result of the path-flow-density pass.
type PathDensityResult struct {
	Function  string                  `json:"function"`
	Densities []cgmetrics.PathDensity `json:"densities"`
	Total     float64                 `json:"total"`
}

func (pathFlowDensityPass) Name() string { return "path-flow-density" }

func (pathFlowDensityPass) Doc() string {
	return "weighs the instructions of every path by the probability of the path"
}

func (pathFlowDensityPass) Run(ctx *RunContext, f *ir.Function) (PassResult, error) {
	res := &PathDensityResult{Function: f.Name}
	res.Densities = cgmetrics.PathFlowDensity(f, ctx.Enumerator.Run(f).Paths)
	for _, d := range res.Densities {
		res.Total += d.Density
	}
	return res, nil
}

// Summary implements PassResult.
func (r *PathDensityResult) Summary() string {
	return fmt.Sprintf("%s: path flow density %.3f over %d paths", r.Function, r.Total, len(r.Densities))
}

// inter-proc-fan-out

type interProcFanOutPass struct{}

// FunctionFanOut is the fan-out and reach of one function in the call graph.
type FunctionFanOut struct {
	Function string `json:"function"`
	FanOut   int    `json:"fan-out"`
	Reach    int    `json:"reach"`
}

// CallGraphFanOutResult is the result of the inter-proc-fan-out pass.
type CallGraphFanOutResult struct {
	Functions []FunctionFanOut `json:"functions"`
}

func (interProcFanOutPass) Name() string { return "inter-proc-fan-out" }

func (interProcFanOutPass) Doc() string {
	return "counts the callees of every function and the functions reachable from it in the call graph"
}

func (interProcFanOutPass) RunModule(_ *RunContext, m *ir.Module) (PassResult, error) {
	cg := ir.NewCallGraph(m)
	fanOut := cgmetrics.FanOut(cg)
	reach := cgmetrics.Reach(cg)
	res := &CallGraphFanOutResult{}
	for i, f := range m.Functions {
		res.Functions = append(res.Functions, FunctionFanOut{Function: f.Name, FanOut: fanOut[i], Reach: reach[i]})
	}
	return res, nil
}

// Summary implements PassResult.
func (r *CallGraphFanOutResult) Summary() string {
	best := FunctionFanOut{}
	for _, f := range r.Functions {
		if f.FanOut > best.FanOut {
			best = f
		}
	}
	if best.Function == "" {
		return fmt.Sprintf("%d functions, no calls", len(r.Functions))
	}
	return fmt.Sprintf("%d functions, largest fan-out %d in %s", len(r.Functions), best.FanOut, best.Function)
}

// feedback-resonance

type feedbackResonancePass struct{}

// ResonanceResult is the result of the feedback-resonance pass.
type ResonanceResult struct {
	Threshold  int        `json:"threshold"`
	Components [][]string `json:"components"`
	Resonant   [][]string `json:"resonant"`
	Cycles     [][]string `json:"cycles"`
}

func (feedbackResonancePass) Name() string { return "feedback-resonance" }

func (feedbackResonancePass) Doc() string {
	return "finds the recursive components of the call graph containing a large function"
}

func (feedbackResonancePass) RunModule(ctx *RunContext, m *ir.Module) (PassResult, error) {
	r := cgmetrics.FeedbackResonance(ir.NewCallGraph(m), float64(ctx.Config.ResonanceThreshold))
	name := func(i int) string { return m.Functions[i].Name }
	names := func(c []int) []string { return funcutil.Map(c, name) }
	return &ResonanceResult{
		Threshold:  ctx.Config.ResonanceThreshold,
		Components: funcutil.Map(r.Cyclic, names),
		Resonant:   funcutil.Map(r.Resonant, names),
		Cycles: funcutil.Map(r.Cycles, func(c []int64) []string {
			return funcutil.Map(c, func(i int64) string { return name(int(i)) })
		}),
	}, nil
}

// Summary implements PassResult.
func (r *ResonanceResult) Summary() string {
	var parts []string
	for _, c := range r.Resonant {
		parts = append(parts, "{"+strings.Join(c, ", ")+"}")
	}
	s := fmt.Sprintf("%d resonant of %d recursive components", len(r.Resonant), len(r.Components))
	if len(parts) > 0 {
		s += ": " + strings.Join(parts, " ")
	}
	return s
}

// flow-density

type flowDensityPass struct{}

// FlowDensityResult is the result of the flow-density pass.
type FlowDensityResult struct {
	cgmetrics.Density
}

func (flowDensityPass) Name() string { return "flow-density" }

func (flowDensityPass) Doc() string {
	return "measures the mean difference of size between callers and callees"
}

func (flowDensityPass) RunModule(_ *RunContext, m *ir.Module) (PassResult, error) {
	return &FlowDensityResult{cgmetrics.FlowDensity(ir.NewCallGraph(m))}, nil
}

// Summary implements PassResult.
func (r *FlowDensityResult) Summary() string {
	return fmt.Sprintf("flow density %.3f over %d call edges", r.Mean, r.Edges)
}
