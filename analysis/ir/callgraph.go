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

package ir

// CallGraph is the call graph of a module where call edges are resolved by callee name. Functions are the nodes
// 0..len(Module.Functions)-1 in module order.
type CallGraph struct {
	Module *Module

	// Out[i] is the set of functions called by function i
	Out []map[int]bool

	// Indirect[i] is true when function i makes an indirect call
	Indirect []bool

	// External[i] is the set of resolved callee names of function i that are not defined in the module
	External []map[string]bool
}

// NewCallGraph builds the call graph of m. Intrinsic calls are ignored.
func NewCallGraph(m *Module) *CallGraph {
	n := len(m.Functions)
	index := make(map[string]int, n)
	for i, f := range m.Functions {
		index[f.Name] = i
	}
	cg := &CallGraph{
		Module:   m,
		Out:      make([]map[int]bool, n),
		Indirect: make([]bool, n),
		External: make([]map[string]bool, n),
	}
	for i, f := range m.Functions {
		cg.Out[i] = map[int]bool{}
		cg.External[i] = map[string]bool{}
		for j := range f.Instrs {
			instr := &f.Instrs[j]
			if instr.Kind != Call || instr.Intrinsic {
				continue
			}
			if instr.Indirect {
				cg.Indirect[i] = true
				continue
			}
			if callee, ok := index[instr.Callee]; ok {
				cg.Out[i][callee] = true
			} else {
				cg.External[i][instr.Callee] = true
			}
		}
	}
	return cg
}

// Successors returns the callees of function i in increasing order.
func (cg *CallGraph) Successors(i int) []int {
	succs := make([]int, 0, len(cg.Out[i]))
	for j := 0; j < len(cg.Out); j++ {
		if cg.Out[i][j] {
			succs = append(succs, j)
		}
	}
	return succs
}

// Nodes returns all node indices.
func (cg *CallGraph) Nodes() []int {
	nodes := make([]int, len(cg.Out))
	for i := range nodes {
		nodes[i] = i
	}
	return nodes
}
