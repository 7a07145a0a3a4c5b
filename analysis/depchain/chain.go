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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Chains holds the length of the longest dependency chain starting at each node. A chain length counts the nodes
// of the chain, so a node without dependents has length 1.
type Chains struct {
	Lengths []int
	Max     int
}

type chainFrame struct {
	node int
	next int
	best int
}

// Longest computes the longest chain from every node.
//
// The search is a depth-first search with memoization. A node that is found again while it is still being explored
// contributes a length of 0. Graphs built by Build are acyclic; those built by BuildFunction have cycles through
// phis.
func (g *Graph) Longest() Chains {
	n := len(g.Nodes)
	res := Chains{Lengths: make([]int, n)}
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]uint8, n)
	var stack []chainFrame

	for root := 0; root < n; root++ {
		if state[root] != unvisited {
			continue
		}
		state[root] = onStack
		stack = append(stack, chainFrame{node: root, best: 1})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.Succs[top.node]) {
				s := g.Succs[top.node][top.next].To
				top.next++
				switch state[s] {
				case unvisited:
					state[s] = onStack
					stack = append(stack, chainFrame{node: s, best: 1})
				case onStack:
					top.best = max(top.best, 1)
				case done:
					top.best = max(top.best, 1+res.Lengths[s])
				}
				continue
			}
			node, best := top.node, top.best
			res.Lengths[node] = best
			state[node] = done
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				parent.best = max(parent.best, 1+best)
			}
		}
		res.Max = max(res.Max, res.Lengths[root])
	}
	return res
}

// CriticalPathLength returns the length of the longest dependency chain of g.
func CriticalPathLength(g *Graph) int {
	return g.Longest().Max
}

// Summary aggregates the critical path lengths of the paths of a function.
type Summary struct {
	Paths int
	Max   int
	Mean  float64
}

// Aggregate returns the maximum and mean of lengths.
func Aggregate(lengths []int) Summary {
	if len(lengths) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(lengths))
	for i, l := range lengths {
		xs[i] = float64(l)
	}
	return Summary{
		Paths: len(lengths),
		Max:   int(floats.Max(xs)),
		Mean:  stat.Mean(xs, nil),
	}
}
