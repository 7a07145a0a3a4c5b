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

package depchain

import (
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

func TestBuildFunctionLoop(t *testing.T) {
	b := ir.NewBuilder("f")
	b.Param("i")
	b.Term("entry")                                      // 0
	b.Add("loop", ir.Instr{Kind: ir.Phi}, "x", "i", "y") // 1
	b.Add("loop", ir.Instr{Kind: ir.Other}, "y", "x")    // 2
	b.Term("loop", "y")                                  // 3
	b.Term("exit")                                       // 4
	b.Chain("entry", "loop", "loop", "exit")
	f := b.MustBuild()

	g := BuildFunction(f, nil)
	if len(g.Nodes) != f.NumInstrs() {
		t.Fatalf("expected one node per instruction, got %d", len(g.Nodes))
	}
	if !g.HasEdge(1, 2) || !g.HasEdge(2, 1) || !g.HasEdge(2, 3) {
		t.Errorf("expected data edges in both directions through the phi: %v", g.Succs)
	}
	if g.NumEdges(Control) != 0 {
		t.Errorf("function graphs have no control edges")
	}
	// x -> y -> terminator, the edge back to the phi is cut
	if got := CriticalPathLength(g); got != 3 {
		t.Errorf("expected longest chain 3, got %d", got)
	}
}

func TestBuildFunctionMemory(t *testing.T) {
	b := ir.NewBuilder("f")
	b.Param("p")
	b.Param("q")
	b.Store("entry", "p", "q") // 0
	b.Load("entry", "a", "p")  // 1
	b.Load("entry", "c", "q")  // 2
	b.Term("entry")                                      // 3
	b.Load("next", "d", "q")   // 4
	b.Store("next", "q", "a")  // 5
	b.Term("next")             // 6
	b.Edge("entry", "next")
	f := b.MustBuild()

	g := BuildFunction(f, ir.AddressOracle{})
	want := map[[2]int]bool{
		{0, 1}: true,  // same address, with a store
		{0, 2}: false, // unknown aliasing in the same block
		{1, 2}: false,
		{0, 4}: true, // later block
		{2, 4}: false,
		{0, 5}: true,
		{2, 5}: true,
		{4, 5}: true,
	}
	for e, has := range want {
		if g.HasEdge(e[0], e[1]) != has {
			t.Errorf("edge %v: expected %v", e, has)
		}
	}
	if g.NumEdges(Memory) != 5 {
		t.Errorf("expected 5 memory edges, got %d", g.NumEdges(Memory))
	}
	// the store uses the loaded value: only the data edge is kept
	if len(g.Succs[1]) != 1 || g.Succs[1][0] != (Edge{To: 5, Kind: Data}) {
		t.Errorf("expected a single data edge from the load to the store, got %v", g.Succs[1])
	}
	if got := CriticalPathLength(g); got != 3 {
		t.Errorf("expected longest chain 3, got %d", got)
	}
}

func TestBuildFunctionEmpty(t *testing.T) {
	g := BuildFunction(&ir.Function{Name: "empty"}, nil)
	if len(g.Nodes) != 0 || CriticalPathLength(g) != 0 {
		t.Errorf("expected an empty graph")
	}
}
