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

// Package taint propagates taint along a single path and counts the functions reached by tainted data.
//
// All the parameters of the function are tainted. Taint flows through the values produced by the instructions of
// the path; memory is not tracked, so a store never taints anything.
package taint

import (
	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
)

// State is the set of tainted values after propagation along a path.
type State struct {
	f       *ir.Function
	tainted []bool
}

// Tainted returns true if v is tainted.
func (s *State) Tainted(v ir.ValueID) bool {
	return s.f.ValidValue(v) && s.tainted[v]
}

// Count returns the number of tainted values.
func (s *State) Count() int {
	n := 0
	for _, t := range s.tainted {
		if t {
			n++
		}
	}
	return n
}

func (s *State) anyTainted(vs []ir.ValueID) bool {
	for _, v := range vs {
		if s.Tainted(v) {
			return true
		}
	}
	return false
}

// Propagate returns the tainted values of path p. Instructions are visited once, in path order, so a value
// becomes tainted only if one of its operands was tainted earlier on the path.
func Propagate(f *ir.Function, p paths.Path, c *classify.Classifier) *State {
	s := &State{f: f, tainted: make([]bool, len(f.Values))}
	if len(p) == 0 {
		return s
	}
	for _, v := range f.Params {
		s.tainted[v] = true
	}
	for _, i := range paths.Instructions(f, p) {
		instr := f.Instr(i)
		if instr.Result == ir.NoValue {
			continue
		}
		var t bool
		switch instr.Kind {
		case ir.Store:
			t = false
		case ir.Load:
			t = s.Tainted(instr.Arg(0))
		case ir.Call:
			if !instr.Indirect && c.Classify(instr.Callee) == classify.InputSource {
				t = true
			} else {
				t = s.anyTainted(instr.Operands)
			}
		default:
			t = s.anyTainted(instr.Operands)
		}
		if t {
			s.tainted[instr.Result] = true
		}
	}
	return s
}

// FanOut returns the tainted fan-out of path p: the number of distinct resolved callees called with at least one
// tainted argument, plus one for every indirect call with a tainted argument. Intrinsics are not counted.
func FanOut(f *ir.Function, p paths.Path, c *classify.Classifier) int {
	return FanOutOf(f, p, Propagate(f, p, c))
}

// FanOutOf returns the tainted fan-out of path p given the taint state of that path.
func FanOutOf(f *ir.Function, p paths.Path, s *State) int {
	fanOut := 0
	callees := map[string]bool{}
	for _, i := range paths.Instructions(f, p) {
		instr := f.Instr(i)
		if instr.Kind != ir.Call || instr.Intrinsic || !s.anyTainted(instr.Operands) {
			continue
		}
		if instr.Indirect {
			fanOut++
		} else if !callees[instr.Callee] {
			callees[instr.Callee] = true
			fanOut++
		}
	}
	return fanOut
}
