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

// Package lockdepth tracks the lock nesting depth along a single path.
//
// The tracker only counts: every acquire increments the depth and every release decrements it, regardless of
// which lock is acquired or released. It therefore cannot see that a path acquires a lock A and releases a lock B.
// The names are matched exactly against [classify.DepthNames], without the fragment rules of the classifier.
package lockdepth

import (
	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
)

// Result is the lock depth of a path.
type Result struct {
	// Depth is the depth at the end of the path
	Depth int

	// MaxDepth is the largest depth reached along the path
	MaxDepth int

	// Unbalanced is true when Depth is not zero
	Unbalanced bool
}

// Track returns the lock depth of path p with the default depth names.
func Track(f *ir.Function, p paths.Path) Result {
	return TrackWith(f, p, classify.DefaultDepthNames())
}

// TrackWith returns the lock depth of path p using names to recognize acquires and releases. Indirect calls are
// ignored.
func TrackWith(f *ir.Function, p paths.Path, names classify.DepthNames) Result {
	var res Result
	for _, i := range paths.Instructions(f, p) {
		instr := f.Instr(i)
		if instr.Kind != ir.Call || instr.Indirect {
			continue
		}
		if names.Acquire[instr.Callee] {
			res.Depth++
			res.MaxDepth = max(res.MaxDepth, res.Depth)
		} else if names.Release[instr.Callee] {
			res.Depth--
		}
	}
	res.Unbalanced = res.Depth != 0
	return res
}
