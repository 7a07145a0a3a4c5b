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

package graphutil_test

import (
	"fmt"
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/internal/graphutil"
)

const recursionModule = `
module: recursion
functions:
  - name: even
    blocks:
      - name: entry
        instrs:
          - {op: call, callee: odd}
          - {op: ret}
  - name: odd
    blocks:
      - name: entry
        instrs:
          - {op: call, callee: even}
          - {op: call, callee: leaf}
          - {op: ret}
  - name: loop
    blocks:
      - name: entry
        instrs:
          - {op: call, callee: loop}
          - {op: ret}
  - name: leaf
    blocks:
      - name: entry
        instrs:
          - {op: ret}
`

func parseCallGraph(t *testing.T, content string) *ir.CallGraph {
	t.Helper()
	m, err := ir.ParseModule([]byte(content))
	if err != nil {
		t.Fatalf("failed to parse module: %v", err)
	}
	return ir.NewCallGraph(m)
}

// checkToposorted checks that every function appears in exactly one component, that components are strongly
// connected, and that no function reaches a component listed after its own.
func checkToposorted(cg *ir.CallGraph, sccs [][]int) error {
	reach := make([]map[int]bool, len(cg.Out))
	for i := range reach {
		reach[i] = map[int]bool{}
		work := []int{i}
		for len(work) > 0 {
			n := work[len(work)-1]
			work = work[:len(work)-1]
			for _, s := range cg.Successors(n) {
				if !reach[i][s] {
					reach[i][s] = true
					work = append(work, s)
				}
			}
		}
	}
	covered := map[int]bool{}
	for i, scc := range sccs {
		for _, x := range scc {
			if covered[x] {
				return fmt.Errorf("function %d appears twice", x)
			}
			covered[x] = true
			for _, y := range scc {
				if x != y && !reach[x][y] {
					return fmt.Errorf("%d does not reach %d in its component", x, y)
				}
			}
			for _, later := range sccs[i+1:] {
				for _, y := range later {
					if reach[x][y] {
						return fmt.Errorf("%d reaches %d of a later component", x, y)
					}
				}
			}
		}
	}
	if len(covered) != len(cg.Out) {
		return fmt.Errorf("expected %d functions, got %d", len(cg.Out), len(covered))
	}
	return nil
}

func TestSCCMutualRecursionAndSelfLoop(t *testing.T) {
	cg := parseCallGraph(t, recursionModule)
	sccs := graphutil.StronglyConnectedComponents(cg.Nodes(), cg.Successors)
	if err := checkToposorted(cg, sccs); err != nil {
		t.Fatalf("components are not toposorted: %v", err)
	}
	// callees first: leaf, then even and odd together, then loop on its own
	if got := fmt.Sprint(sccs); got != "[[3] [1 0] [2]]" {
		t.Errorf("unexpected components %s", got)
	}
	// a singleton component is recursive only through a self-loop
	for _, scc := range sccs {
		if len(scc) != 1 {
			continue
		}
		n := scc[0]
		if selfLoop := cg.Out[n][n]; selfLoop != (n == 2) {
			t.Errorf("function %d: unexpected self-loop %v", n, selfLoop)
		}
	}
}

func TestSCCOfCallGraphFixture(t *testing.T) {
	cg := loadCallGraph(t, "cycles.yaml")
	sccs := graphutil.StronglyConnectedComponents(cg.Graph.Nodes(), cg.Graph.Successors)
	if err := checkToposorted(cg.Graph, sccs); err != nil {
		t.Fatalf("components are not toposorted: %v", err)
	}
	if got := fmt.Sprint(sccs); got != "[[3 2] [1 0] [4]]" {
		t.Errorf("unexpected components %s", got)
	}
}

func TestSCCEmptyCallGraph(t *testing.T) {
	cg := parseCallGraph(t, "module: empty\n")
	if sccs := graphutil.StronglyConnectedComponents(cg.Nodes(), cg.Successors); len(sccs) != 0 {
		t.Errorf("expected no components, got %v", sccs)
	}
}
