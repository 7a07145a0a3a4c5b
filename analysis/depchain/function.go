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

import "github.com/awslabs/ar-go-lockpath/analysis/ir"

// BuildFunction returns the dependency graph of all the instructions of f, independently of any path. Nodes are
// the instructions of f in block order, so node i is the i-th instruction of the concatenated blocks.
//
// A data edge goes from the producer of each operand to its user, wherever the two instructions are; phis make
// the graph cyclic in loops, and Longest cuts those cycles. A memory edge goes from each load or store to every
// later memory instruction that does not already use its result, following the rule of Build: the oracle decides
// within a block, and instructions of different blocks depend on each other unless both are loads.
func BuildFunction(f *ir.Function, oracle ir.Oracle) *Graph {
	g := &Graph{f: f}
	node := make(map[ir.InstrID]int, f.NumInstrs())
	for b := range f.Blocks {
		for _, id := range f.Blocks[b].Instrs {
			node[id] = len(g.Nodes)
			g.Nodes = append(g.Nodes, id)
		}
	}
	g.Succs = make([][]Edge, len(g.Nodes))

	var memoryNodes []int
	for j, id := range g.Nodes {
		instr := f.Instr(id)
		for _, op := range instr.Operands {
			if !f.ValidValue(op) {
				continue
			}
			if v := f.Value(op); v.Kind == ir.Result {
				if k, ok := node[v.Def]; ok {
					g.addEdge(k, j, Data)
				}
			}
		}
		if !instr.IsMemory() {
			continue
		}
		for _, k := range memoryNodes {
			earlier := f.Instr(g.Nodes[k])
			if earlier.Result != ir.NoValue && uses(instr, earlier.Result) {
				continue
			}
			if memoryDependent(f, g.Nodes[k], id, oracle) {
				g.addEdge(k, j, Memory)
			}
		}
		memoryNodes = append(memoryNodes, j)
	}
	return g
}

func uses(instr *ir.Instr, v ir.ValueID) bool {
	for _, op := range instr.Operands {
		if op == v {
			return true
		}
	}
	return false
}
