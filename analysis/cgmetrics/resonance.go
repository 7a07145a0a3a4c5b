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
	"math"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
	"github.com/awslabs/ar-go-lockpath/internal/graphutil"
	"gonum.org/v1/gonum/stat"
)

// Resonance is the result of the feedback resonance analysis.
type Resonance struct {
	// Cyclic are the call graph components that are recursive: strongly connected components with more than one
	// function, and functions calling themselves.
	Cyclic [][]int

	// Resonant are the cyclic components containing a function whose entropy exceeds the threshold
	Resonant [][]int

	// Cycles are the elementary cycles of the call graph, each starting and ending with its smallest function index
	Cycles [][]int64
}

// Count returns the number of resonant components
func (r Resonance) Count() int {
	return len(r.Resonant)
}

// FeedbackResonance finds the recursive components of the call graph whose largest entropy exceeds threshold.
func FeedbackResonance(cg *ir.CallGraph, threshold float64) Resonance {
	entropy := Entropy(cg.Module)
	var res Resonance
	sccs := graphutil.StronglyConnectedComponents(cg.Nodes(), cg.Successors)
	for _, scc := range sccs {
		if len(scc) == 1 && !cg.Out[scc[0]][scc[0]] {
			continue
		}
		res.Cyclic = append(res.Cyclic, scc)
		maxEntropy := 0.0
		for _, f := range scc {
			maxEntropy = math.Max(maxEntropy, entropy[f])
		}
		if maxEntropy > threshold {
			res.Resonant = append(res.Resonant, scc)
		}
	}
	res.Cycles = graphutil.FindAllElementaryCycles(graphutil.NewCallgraphIterator(cg))
	return res
}

// Density is the result of the flow density analysis.
type Density struct {
	// Edges is the number of call edges between functions of the module
	Edges int `json:"edges"`

	// Total is the sum of the absolute entropy differences between caller and callee
	Total float64 `json:"total"`

	// Mean is Total / Edges, or zero when there are no edges
	Mean float64 `json:"mean"`
}

// FlowDensity measures the entropy gradient along the call edges of the module.
func FlowDensity(cg *ir.CallGraph) Density {
	entropy := Entropy(cg.Module)
	var gradients []float64
	for i := range cg.Out {
		for _, j := range cg.Successors(i) {
			gradients = append(gradients, math.Abs(entropy[i]-entropy[j]))
		}
	}
	d := Density{Edges: len(gradients)}
	if len(gradients) == 0 {
		return d
	}
	for _, g := range gradients {
		d.Total += g
	}
	d.Mean = stat.Mean(gradients, nil)
	return d
}

// PathDensity is the flow density of a single path.
type PathDensity struct {
	// Entropy is the number of instructions along the path
	Entropy float64 `json:"entropy"`

	// Probability is the probability of the path when every branch is taken with equal probability
	Probability float64 `json:"probability"`

	// Density is Entropy * Probability
	Density float64 `json:"density"`
}

// PathFlowDensity returns the flow density of each path of f.
func PathFlowDensity(f *ir.Function, ps []paths.Path) []PathDensity {
	res := make([]PathDensity, 0, len(ps))
	for _, p := range ps {
		if len(p) == 0 {
			continue
		}
		d := PathDensity{Probability: 1}
		for i, b := range p {
			d.Entropy += float64(len(f.Block(b).Instrs))
			if i+1 < len(p) {
				d.Probability /= float64(len(f.Block(b).Succs))
			}
		}
		d.Density = d.Entropy * d.Probability
		res = append(res, d)
	}
	return res
}
