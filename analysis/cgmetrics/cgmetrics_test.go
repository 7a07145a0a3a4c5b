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

package cgmetrics

import (
	"embed"
	"fmt"
	"math"
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
)

//go:embed testdata
var testfsys embed.FS

func loadModule(t *testing.T) *ir.Module {
	t.Helper()
	b, err := testfsys.ReadFile("testdata/metrics.yaml")
	if err != nil {
		t.Fatalf("failed to read test module: %v", err)
	}
	m, err := ir.ParseModule(b)
	if err != nil {
		t.Fatalf("failed to parse test module: %v", err)
	}
	return m
}

func TestFanOut(t *testing.T) {
	cg := ir.NewCallGraph(loadModule(t))
	// main: parse, run, printf and one for the indirect call; parse only calls itself
	if got := fmt.Sprint(FanOut(cg)); got != "[4 0 1 1 0 0]" {
		t.Errorf("unexpected fan-out %s", got)
	}
}

func TestEntropyAndReach(t *testing.T) {
	m := loadModule(t)
	if got := fmt.Sprint(Entropy(m)); got != "[5 12 2 3 1 6]" {
		t.Errorf("unexpected entropy %s", got)
	}
	if got := fmt.Sprint(Reach(ir.NewCallGraph(m))); got != "[3 0 1 1 0 0]" {
		t.Errorf("unexpected reach %s", got)
	}
}

func TestFeedbackResonance(t *testing.T) {
	cg := ir.NewCallGraph(loadModule(t))
	res := FeedbackResonance(cg, 10)
	if len(res.Cyclic) != 2 {
		t.Fatalf("expected two recursive components, got %v", res.Cyclic)
	}
	if res.Count() != 1 || fmt.Sprint(res.Resonant[0]) != "[1]" {
		t.Errorf("only parse should resonate, got %v", res.Resonant)
	}
	if got := fmt.Sprint(res.Cycles); got != "[[1 1] [2 3 2]]" {
		t.Errorf("unexpected cycles %s", got)
	}

	// with a lower threshold, run and step resonate too
	if res := FeedbackResonance(cg, 2); res.Count() != 2 {
		t.Errorf("expected 2 resonant components, got %v", res.Resonant)
	}
	// a second run on the same input gives the same result
	if a, b := FeedbackResonance(cg, 10), FeedbackResonance(cg, 10); fmt.Sprint(a) != fmt.Sprint(b) {
		t.Errorf("results differ between runs: %v and %v", a, b)
	}
}

func TestFlowDensity(t *testing.T) {
	d := FlowDensity(ir.NewCallGraph(loadModule(t)))
	// |5-12| + |5-2| + |12-12| + |2-3| + |3-2|
	if d.Edges != 5 || d.Total != 12 || math.Abs(d.Mean-2.4) > 1e-9 {
		t.Errorf("unexpected density %+v", d)
	}
	if d := FlowDensity(ir.NewCallGraph(&ir.Module{})); d.Edges != 0 || d.Mean != 0 {
		t.Errorf("expected an empty density, got %+v", d)
	}
}

func TestPathFlowDensity(t *testing.T) {
	f := loadModule(t).Lookup("diamond")
	res := paths.Enumerate(f, 10, 1)
	densities := PathFlowDensity(f, res.Paths)
	if len(densities) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(densities))
	}
	want := []PathDensity{{4, 0.5, 2}, {5, 0.5, 2.5}}
	for i, d := range densities {
		if d != want[i] {
			t.Errorf("path %d: expected %+v, got %+v", i, want[i], d)
		}
	}
}
