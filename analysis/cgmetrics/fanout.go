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

// Package cgmetrics computes coupling metrics over the call graph of a module: fan-out, feedback resonance of
// recursive cycles and flow density. The "entropy" of a function is its instruction count.
//
// Every function takes its inputs explicitly and keeps no state between calls.
package cgmetrics

import (
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/internal/graphutil"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// FanOut returns, for each function of the module, the number of distinct functions it calls, excluding itself,
// plus one if it makes any indirect call. Callees that are not defined in the module count as resolved.
func FanOut(cg *ir.CallGraph) []int {
	res := make([]int, len(cg.Out))
	for i := range cg.Out {
		n := len(cg.Out[i]) + len(cg.External[i])
		if cg.Out[i][i] {
			n--
		}
		if cg.Indirect[i] {
			n++
		}
		res[i] = n
	}
	return res
}

// Entropy returns the instruction count of each function of the module.
func Entropy(m *ir.Module) []float64 {
	res := make([]float64, len(m.Functions))
	for i, f := range m.Functions {
		res[i] = float64(f.NumInstrs())
	}
	return res
}

// Reach returns, for each function of the module, the number of other module functions it may transitively call.
func Reach(cg *ir.CallGraph) []int {
	g := graphutil.NewCallgraphIterator(cg)
	res := make([]int, len(cg.Out))
	for i := range cg.Out {
		count := 0
		bf := traverse.BreadthFirst{
			Visit: func(n graph.Node) {
				if n.ID() != int64(i) {
					count++
				}
			},
		}
		bf.Walk(g, g.Node(int64(i)), nil)
		res[i] = count
	}
	return res
}
