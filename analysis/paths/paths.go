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

// Package paths enumerates the control-flow paths of a function, from the entry block to a block without
// successors. The enumeration is bounded by a maximum number of paths and by the number of times a block can be
// repeated on a single path.
package paths

import (
	"strings"

	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

// Path is a sequence of blocks starting at the entry block of a function.
type Path []ir.BlockID

// Format prints the path with the block names of f.
func (p Path) Format(f *ir.Function) string {
	var b strings.Builder
	for i, blk := range p {
		if i > 0 {
			b.WriteString(" -> ")
		}
		b.WriteString(f.Block(blk).Name)
	}
	return b.String()
}

// Count returns the number of occurrences of block b in the path.
func (p Path) Count(b ir.BlockID) int {
	n := 0
	for _, x := range p {
		if x == b {
			n++
		}
	}
	return n
}

// Instructions returns the instructions of the path, in execution order.
func Instructions(f *ir.Function, p Path) []ir.InstrID {
	var instrs []ir.InstrID
	for _, b := range p {
		instrs = append(instrs, f.Block(b).Instrs...)
	}
	return instrs
}

// Result is the result of a path enumeration.
type Result struct {
	Paths []Path

	// ReachedLimit is true when the enumeration stopped because the maximum number of paths was reached.
	ReachedLimit bool
}

// Enumerator holds the limits of a path enumeration. The zero value enumerates no path.
type Enumerator struct {
	// MaxPaths is the maximum number of paths returned
	MaxPaths int

	// MaxLoopIterations is the number of times a block may be repeated on a path, beyond its first occurrence.
	MaxLoopIterations int

	Logger *config.LogGroup
}

// NewEnumerator returns an enumerator with the limits of the config.
func NewEnumerator(cfg *config.Config, logger *config.LogGroup) Enumerator {
	return Enumerator{MaxPaths: cfg.MaxPaths, MaxLoopIterations: cfg.MaxLoopIterations, Logger: logger}
}

// Enumerate returns the paths of f with the limits provided.
func Enumerate(f *ir.Function, maxPaths, maxLoopIterations int) Result {
	return Enumerator{MaxPaths: maxPaths, MaxLoopIterations: maxLoopIterations}.Run(f)
}

type frame struct {
	block ir.BlockID
	next  int // index of the next successor to explore
}

// Run enumerates the paths of f in depth-first order, exploring successors in order.
//
// A block that has already been visited more than MaxLoopIterations times on the current path is not explored
// again and the path is dropped. Paths are only recorded when they reach a block without successors.
func (e Enumerator) Run(f *ir.Function) Result {
	var res Result
	if f.Empty() {
		e.Logger.Warnf("function %s is empty", f.Name)
		return res
	}
	maxLoop := max(e.MaxLoopIterations, 0)

	// visits is scoped to the current path: entries are decremented when backtracking
	visits := make([]int, len(f.Blocks))
	var path Path
	var stack []frame

	limitReached := func() bool {
		if len(res.Paths) >= e.MaxPaths {
			res.ReachedLimit = true
			return true
		}
		return false
	}
	enter := func(b ir.BlockID) {
		if limitReached() || visits[b] > maxLoop {
			return
		}
		path = append(path, b)
		visits[b]++
		stack = append(stack, frame{block: b})
		if f.Block(b).IsExit() {
			res.Paths = append(res.Paths, append(Path(nil), path...))
		}
	}

	enter(f.Entry)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := f.Block(top.block).Succs
		if top.next < len(succs) && !limitReached() {
			s := succs[top.next]
			top.next++
			enter(s)
			continue
		}
		path = path[:len(path)-1]
		visits[top.block]--
		stack = stack[:len(stack)-1]
	}

	if res.ReachedLimit {
		e.Logger.Warnf("path enumeration limit (%d) reached for function %s", e.MaxPaths, f.Name)
	}
	e.Logger.Debugf("%d paths in function %s", len(res.Paths), f.Name)
	return res
}
