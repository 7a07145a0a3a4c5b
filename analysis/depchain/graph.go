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

// Package depchain builds the dependency graph of the instructions along a path and computes the length of its
// longest dependency chain, i.e. the critical path of the path.
//
// The nodes of the graph are the positions in the path: an instruction that appears twice on a path, because its
// block is repeated by a loop, is two different nodes. Edges always go from an earlier position to a later one.
// BuildFunction builds the path-independent variant over all the instructions of a function.
package depchain

import (
	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
)

// EdgeKind is the reason for a dependency edge.
type EdgeKind uint8

const (
	// Data edges go from the producer of a value to an instruction using it
	Data EdgeKind = iota
	// Memory edges go between two instructions that may access the same memory
	Memory
	// Control edges go from the terminator of a block to the first instruction of the next block on the path
	Control
	// Allocation edges go from a memory management call to every later load and store
	Allocation
)

func (k EdgeKind) String() string {
	switch k {
	case Data:
		return "data"
	case Memory:
		return "memory"
	case Control:
		return "control"
	case Allocation:
		return "allocation"
	}
	return "?"
}

// MemoryManagementFragments identify the callees that allocate or free memory.
var MemoryManagementFragments = []string{"alloc", "free", "realloc", "malloc"}

var memoryMatcher = classify.SubstringMatcher{FoldCase: true}

// Edge is a dependency edge to the node To.
type Edge struct {
	To   int
	Kind EdgeKind
}

// Graph is the dependency graph of a path, or of a whole function.
type Graph struct {
	f *ir.Function

	// Nodes holds the instruction at each position of the path, or each instruction of the function
	Nodes []ir.InstrID

	// Succs holds the outgoing edges of each node
	Succs [][]Edge
}

// NumEdges returns the number of edges of kind k.
func (g *Graph) NumEdges(k EdgeKind) int {
	n := 0
	for _, edges := range g.Succs {
		for _, e := range edges {
			if e.Kind == k {
				n++
			}
		}
	}
	return n
}

// HasEdge returns true if there is an edge from node i to node j.
func (g *Graph) HasEdge(i, j int) bool {
	for _, e := range g.Succs[i] {
		if e.To == j {
			return true
		}
	}
	return false
}

func (g *Graph) addEdge(from, to int, k EdgeKind) {
	g.Succs[from] = append(g.Succs[from], Edge{To: to, Kind: k})
}

// Build returns the dependency graph of path p.
//
// The oracle decides whether two memory instructions of the same block depend on each other. A nil oracle, or an
// unknown answer, means there is no dependency. Memory instructions in different blocks always depend on each other,
// unless both are loads.
func Build(f *ir.Function, p paths.Path, oracle ir.Oracle) *Graph {
	g := &Graph{f: f, Nodes: paths.Instructions(f, p)}
	g.Succs = make([][]Edge, len(g.Nodes))

	// last position of each instruction seen so far
	lastPos := make(map[ir.InstrID]int, len(g.Nodes))
	var memoryNodes []int

	for j, id := range g.Nodes {
		instr := f.Instr(id)

		for _, op := range instr.Operands {
			if !f.ValidValue(op) {
				continue
			}
			v := f.Value(op)
			if v.Kind != ir.Result {
				continue
			}
			if k, ok := lastPos[v.Def]; ok {
				g.addEdge(k, j, Data)
			}
		}

		if instr.IsMemory() {
			for _, k := range memoryNodes {
				if memoryDependent(f, g.Nodes[k], id, oracle) {
					g.addEdge(k, j, Memory)
				}
			}
			memoryNodes = append(memoryNodes, j)
		}

		lastPos[id] = j
	}

	// control edges between consecutive block occurrences
	pos := 0
	prevLast := -1
	for _, b := range p {
		n := len(f.Block(b).Instrs)
		if n == 0 {
			continue
		}
		if prevLast >= 0 && f.Instr(g.Nodes[prevLast]).Kind == ir.Terminator {
			g.addEdge(prevLast, pos, Control)
		}
		prevLast = pos + n - 1
		pos += n
	}

	for i, id := range g.Nodes {
		instr := f.Instr(id)
		if instr.Kind != ir.Call || instr.Indirect || !memoryMatcher.MatchAny(instr.Callee, MemoryManagementFragments) {
			continue
		}
		for j := i + 1; j < len(g.Nodes); j++ {
			if f.Instr(g.Nodes[j]).IsMemory() {
				g.addEdge(i, j, Allocation)
			}
		}
	}
	return g
}

func memoryDependent(f *ir.Function, earlier, later ir.InstrID, oracle ir.Oracle) bool {
	a, b := f.Instr(earlier), f.Instr(later)
	if a.Block == b.Block {
		return oracle != nil && oracle.Depends(f, earlier, later) == ir.DependenceYes
	}
	return a.Kind != ir.Load || b.Kind != ir.Load
}
