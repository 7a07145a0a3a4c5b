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
	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

// TransferInstr returns the lock set after instruction i, given the lock set s before it.
func TransferInstr(f *ir.Function, i ir.InstrID, s LockSet, opts Options) LockSet {
	instr := f.Instr(i)
	if instr.Kind != ir.Call || instr.Intrinsic {
		return s
	}
	if instr.Indirect {
		if opts.IndirectClears {
			return nil
		}
		return s
	}
	if len(instr.Operands) == 0 || ir.IsNull(f, instr.Operands[0]) {
		return s
	}
	if opts.Classifier == nil {
		opts = opts.normalize()
	}
	lock := classify.Canonical(f, instr.Operands[0])
	switch opts.Classifier.Classify(instr.Callee) {
	case classify.Acquire:
		return s.Add(lock)
	case classify.Release:
		return s.Remove(lock)
	case classify.TryAcquire:
		if opts.TryAcquireAdds {
			return s.Add(lock)
		}
	}
	return s
}

// Transfer returns the lock set at the exit of block b, given the lock set in at its entry.
func Transfer(f *ir.Function, b ir.BlockID, in LockSet, opts Options) LockSet {
	opts = opts.normalize()
	s := in
	for _, i := range f.Block(b).Instrs {
		s = TransferInstr(f, i, s, opts)
	}
	return s
}

// Before returns the lock set held just before instruction i executes.
func (r *Result) Before(i ir.InstrID) LockSet {
	b := r.fn.Instr(i).Block
	s := r.In[b]
	for _, j := range r.fn.Block(b).Instrs {
		if j == i {
			return s
		}
		s = TransferInstr(r.fn, j, s, r.opts)
	}
	return s
}

// After returns the lock set held just after instruction i executes.
func (r *Result) After(i ir.InstrID) LockSet {
	return TransferInstr(r.fn, i, r.Before(i), r.opts)
}

// ForEachInstr calls fn with every instruction of the function, in block order, and the lock set held
// before it.
func (r *Result) ForEachInstr(fn func(i ir.InstrID, held LockSet)) {
	for b := range r.fn.Blocks {
		s := r.In[ir.BlockID(b)]
		for _, i := range r.fn.Blocks[b].Instrs {
			fn(i, s)
			s = TransferInstr(r.fn, i, s, r.opts)
		}
	}
}

// HeldAtExit returns the exit blocks where some lock may still be held, in increasing order.
func (r *Result) HeldAtExit() []ir.BlockID {
	var blocks []ir.BlockID
	for b := range r.fn.Blocks {
		id := ir.BlockID(b)
		if r.fn.Blocks[b].IsExit() && len(r.Out[id]) > 0 {
			blocks = append(blocks, id)
		}
	}
	return blocks
}
