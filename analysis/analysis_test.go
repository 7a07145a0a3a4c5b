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
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

func loadTestModule(t *testing.T) (*RunContext, *ir.Module, *bytes.Buffer) {
	t.Helper()
	cfg := config.NewDefault()
	cfg.NumRoutines = 2
	var buf bytes.Buffer
	ctx := NewRunContext(cfg, config.NewLogGroupAt(config.WarnLevel, &buf))
	m, err := LoadModule(cfg, "", []string{"testdata/program.yaml"})
	if err != nil {
		t.Fatalf("failed to load module: %v", err)
	}
	return ctx, m, &buf
}

func TestAnalyzeFunctionBalanced(t *testing.T) {
	ctx, m, _ := loadTestModule(t)
	r := AnalyzeFunction(ctx, m.Lookup("guarded"))
	if r.Blocks != 1 || r.Instructions != 4 {
		t.Errorf("expected 1 block and 4 instructions, got %d and %d", r.Blocks, r.Instructions)
	}
	if !r.Converged {
		t.Errorf("solver should converge")
	}
	if r.CriticalInstructions != 2 || r.CriticalPercent != 50 {
		t.Errorf("expected 2 critical instructions (50%%), got %d (%.1f%%)", r.CriticalInstructions,
			r.CriticalPercent)
	}
	if !reflect.DeepEqual(r.LockUsage, map[string]int{"m": 2}) {
		t.Errorf("unexpected lock usage %v", r.LockUsage)
	}
	if r.NumPaths != 1 || r.ReachedLimit || r.UnbalancedPaths != 0 {
		t.Fatalf("expected one balanced path, got %d paths, %d unbalanced", r.NumPaths, r.UnbalancedPaths)
	}
	p := r.Paths[0]
	if p.Path != "entry" || p.Depth != 0 || p.FanOut != 3 || p.ChainLength != 2 {
		t.Errorf("unexpected path report %+v", p)
	}
	if r.MaxChain != 2 || r.MeanChain != 2 {
		t.Errorf("expected chain max and mean 2, got %d and %f", r.MaxChain, r.MeanChain)
	}
}

func TestAnalyzeFunctionLeak(t *testing.T) {
	ctx, m, _ := loadTestModule(t)
	r := AnalyzeFunction(ctx, m.Lookup("leaky"))
	if r.CriticalInstructions != 3 {
		t.Errorf("expected 3 critical instructions, got %d", r.CriticalInstructions)
	}
	want := []BlockLocks{
		{Block: "entry", In: []string{}, Out: []string{"m"}},
		{Block: "unlock", In: []string{"m"}, Out: []string{}},
		{Block: "done", In: []string{"m"}, Out: []string{"m"}},
	}
	if !reflect.DeepEqual(r.Locks, want) {
		t.Errorf("expected locks %v, got %v", want, r.Locks)
	}
	if r.NumPaths != 2 || r.UnbalancedPaths != 1 {
		t.Fatalf("expected 2 paths with 1 unbalanced, got %d and %d", r.NumPaths, r.UnbalancedPaths)
	}
	if r.Paths[0].Path != "entry -> unlock -> done" || r.Paths[0].Unbalanced {
		t.Errorf("unexpected first path %+v", r.Paths[0])
	}
	if r.Paths[1].Path != "entry -> done" || !r.Paths[1].Unbalanced || r.Paths[1].Depth != 1 {
		t.Errorf("unexpected second path %+v", r.Paths[1])
	}
}

func TestAnalyzeEmptyFunction(t *testing.T) {
	ctx, m, buf := loadTestModule(t)
	r := AnalyzeFunction(ctx, m.Lookup("empty"))
	if r.Blocks != 0 || r.NumPaths != 0 || len(r.Locks) != 0 {
		t.Errorf("expected empty report, got %+v", r)
	}
	if !bytes.Contains(buf.Bytes(), []byte("function empty is empty")) {
		t.Errorf("expected a warning for the empty function, got %q", buf.String())
	}
}

func TestAnalyzeModuleKeepsOrder(t *testing.T) {
	ctx, m, _ := loadTestModule(t)
	reports := AnalyzeModule(ctx, m)
	if len(reports) != len(m.Functions) {
		t.Fatalf("expected %d reports, got %d", len(m.Functions), len(reports))
	}
	for i, r := range reports {
		if r.Function != m.Functions[i].Name {
			t.Errorf("report %d is for %s, expected %s", i, r.Function, m.Functions[i].Name)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	want := []string{"critical-section", "fan-out", "feedback-resonance", "flow-density", "function-max-path",
		"inter-proc-fan-out", "lock-depth", "max-path", "path-enumerator", "path-flow-density"}
	if !reflect.DeepEqual(r.Names(), want) {
		t.Errorf("expected passes %v, got %v", want, r.Names())
	}
	if fp, mp, ok := r.Lookup("lock-depth"); !ok || fp == nil || mp != nil {
		t.Errorf("lock-depth should be a function pass")
	}
	if fp, mp, ok := r.Lookup("flow-density"); !ok || fp != nil || mp == nil {
		t.Errorf("flow-density should be a module pass")
	}
	if _, _, ok := r.Lookup("nope"); ok {
		t.Errorf("unknown pass should not be found")
	}
	for _, name := range r.Names() {
		fp, mp, _ := r.Lookup(name)
		if (fp != nil && fp.Doc() == "") || (mp != nil && mp.Doc() == "") {
			t.Errorf("pass %s has no documentation", name)
		}
	}
}

func TestFunctionPasses(t *testing.T) {
	ctx, m, _ := loadTestModule(t)
	r := DefaultRegistry()
	res, err := r.RunModule(ctx, "lock-depth", m)
	if err != nil {
		t.Fatalf("lock-depth failed: %v", err)
	}
	mr := res.(*ModuleResult)
	if len(mr.Results) != len(m.Functions) {
		t.Fatalf("expected one result per function, got %d", len(mr.Results))
	}
	leaky := mr.Results[1].(*LockDepthResult)
	if leaky.Function != "leaky" || !reflect.DeepEqual(leaky.Depths, []int{0, 1}) || leaky.Unbalanced != 1 {
		t.Errorf("unexpected lock-depth result %+v", leaky)
	}

	fp, _, _ := r.Lookup("critical-section")
	cs, err := fp.Run(ctx, m.Lookup("guarded"))
	if err != nil {
		t.Fatalf("critical-section failed: %v", err)
	}
	if s := cs.Summary(); s != "guarded: 2/4 instructions in critical sections (50.0%)" {
		t.Errorf("unexpected summary %q", s)
	}

	fp, _, _ = r.Lookup("path-enumerator")
	ps, _ := fp.Run(ctx, m.Lookup("leaky"))
	if got := ps.(*PathsResult).Paths; !reflect.DeepEqual(got, []string{"entry -> unlock -> done", "entry -> done"}) {
		t.Errorf("unexpected paths %v", got)
	}

	fp, _, _ = r.Lookup("fan-out")
	fo, _ := fp.Run(ctx, m.Lookup("guarded"))
	if fo.(*TaintFanOutResult).Max != 3 {
		t.Errorf("expected fan-out 3, got %d", fo.(*TaintFanOutResult).Max)
	}

	fp, _, _ = r.Lookup("max-path")
	ch, _ := fp.Run(ctx, m.Lookup("guarded"))
	if ch.(*ChainResult).Max != 2 {
		t.Errorf("expected longest chain 2, got %d", ch.(*ChainResult).Max)
	}

	fp, _, _ = r.Lookup("function-max-path")
	fc, _ := fp.Run(ctx, m.Lookup("guarded"))
	if s := fc.Summary(); s != "guarded: 1 blocks, 4 instructions, max path 2" {
		t.Errorf("unexpected summary %q", s)
	}
	fc, _ = fp.Run(ctx, m.Lookup("empty"))
	if fc.(*FunctionChainResult).MaxPath != 0 {
		t.Errorf("an empty function has no chain, got %d", fc.(*FunctionChainResult).MaxPath)
	}

	if _, err := r.RunModule(ctx, "nope", m); err == nil {
		t.Errorf("expected an error for an unknown pass")
	}
}

func TestModulePasses(t *testing.T) {
	ctx, m, _ := loadTestModule(t)
	r := DefaultRegistry()

	res, err := r.RunModule(ctx, "inter-proc-fan-out", m)
	if err != nil {
		t.Fatalf("inter-proc-fan-out failed: %v", err)
	}
	got := res.(*CallGraphFanOutResult).Functions
	want := []FunctionFanOut{
		{Function: "guarded", FanOut: 3, Reach: 1},
		{Function: "leaky", FanOut: 2, Reach: 0},
		{Function: "compute", FanOut: 0, Reach: 0},
		{Function: "empty", FanOut: 0, Reach: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	res, err = r.RunModule(ctx, "feedback-resonance", m)
	if err != nil {
		t.Fatalf("feedback-resonance failed: %v", err)
	}
	fr := res.(*ResonanceResult)
	if !reflect.DeepEqual(fr.Components, [][]string{{"compute"}}) || len(fr.Resonant) != 0 {
		t.Errorf("unexpected resonance %+v", fr)
	}
	if !reflect.DeepEqual(fr.Cycles, [][]string{{"compute", "compute"}}) {
		t.Errorf("unexpected cycles %v", fr.Cycles)
	}

	res, err = r.RunModule(ctx, "flow-density", m)
	if err != nil {
		t.Fatalf("flow-density failed: %v", err)
	}
	fd := res.(*FlowDensityResult)
	if fd.Edges != 2 || fd.Total != 2 || fd.Mean != 1 {
		t.Errorf("unexpected flow density %+v", fd.Density)
	}
}

func TestModuleStatistics(t *testing.T) {
	ctx, m, _ := loadTestModule(t)
	s := ModuleStatistics(m, ctx.Classifier)
	if s.NumberOfFunctions != 4 || s.NumberOfNonemptyFunctions != 3 || s.NumberOfBlocks != 5 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.NumberOfCalls != 6 || s.NumberOfIndirectCalls != 0 {
		t.Errorf("expected 6 direct calls, got %d and %d indirect", s.NumberOfCalls, s.NumberOfIndirectCalls)
	}
	if s.Calls["acquire"] != 2 || s.Calls["release"] != 2 {
		t.Errorf("unexpected classified calls %v", s.Calls)
	}
}

func TestFindDirectives(t *testing.T) {
	src := `package p

//lockpath:ignore
func skipped() {}

// kept has a regular comment
func kept() {}

// also skipped
//
//lockpath:ignore
func alsoSkipped() {}

//lockpath:unknown
func unknown() {}
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	ds := findDirectives([]*ast.File{f}, fset)
	if len(ds) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(ds))
	}
	for _, line := range []int{4, 12} {
		d, ok := ds[DirectivePos{Filename: "p.go", Line: line}]
		if !ok || d.Kind != DirectiveIgnore {
			t.Errorf("expected ignore directive for the function at line %d", line)
		}
	}
}
