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

package lockset

import (
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/internal/funcutil"
)

// SectionStats summarizes the critical sections of a function. An instruction is in a critical section when at
// least one lock is held before it executes.
type SectionStats struct {
	Blocks       int
	Instructions int

	// CriticalInstructions is the number of instructions executed while some lock is held
	CriticalInstructions int

	// LockUsage maps each lock to the number of instructions it protects
	LockUsage map[ir.ValueID]int

	// Nested is true when two or more locks are held at some instruction
	Nested bool

	// MaxDepth is the largest number of locks held at once
	MaxDepth int
}

// CriticalPercent returns the percentage of instructions in critical sections.
func (s SectionStats) CriticalPercent() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return 100.0 * float64(s.CriticalInstructions) / float64(s.Instructions)
}

// Locks returns the locks of LockUsage in increasing order.
func (s SectionStats) Locks() []ir.ValueID {
	set := make(map[ir.ValueID]bool, len(s.LockUsage))
	for v := range s.LockUsage {
		set[v] = true
	}
	return funcutil.SetToOrderedSlice(set)
}

// Stats computes the critical section statistics of a solved function.
func Stats(r *Result) SectionStats {
	stats := SectionStats{
		Blocks:    len(r.fn.Blocks),
		LockUsage: map[ir.ValueID]int{},
	}
	r.ForEachInstr(func(_ ir.InstrID, held LockSet) {
		stats.Instructions++
		if len(held) == 0 {
			return
		}
		stats.CriticalInstructions++
		for _, l := range held {
			stats.LockUsage[l]++
		}
		if len(held) > 1 {
			stats.Nested = true
		}
		stats.MaxDepth = max(stats.MaxDepth, len(held))
	})
	return stats
}
