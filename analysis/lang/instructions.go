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

// Package lang provides functions to operate on the SSA representation of a program and to translate it into the
// program model of the lock analyses.
package lang

import (
	"fmt"

	"golang.org/x/tools/go/ssa"
)

// An InstrOp receives SSA instructions grouped by the way the lock analyses see them. Conversions, allocations and
// instructions with no meaning for locks or memory each share a method.
type InstrOp interface {
	DoDebugRef(*ssa.DebugRef)
	DoUnOp(*ssa.UnOp)
	DoCall(*ssa.Call)
	DoRunDefers(*ssa.RunDefers)
	DoStore(*ssa.Store)
	DoFieldAddr(*ssa.FieldAddr)
	DoIndexAddr(*ssa.IndexAddr)
	DoPhi(*ssa.Phi)
	DoReturn(*ssa.Return)
	DoPanic(*ssa.Panic)
	DoIf(*ssa.If)
	DoJump(*ssa.Jump)
	// DoCast is called for value conversions, with x the converted operand.
	DoCast(instr ssa.Instruction, x ssa.Value)
	// DoAlloc is called for instructions creating a new object; sizes holds its size operands, which may be nil.
	DoAlloc(instr ssa.Instruction, sizes ...ssa.Value)
	// DoOpaque is called for every other instruction.
	DoOpaque(ssa.Instruction)
}

// InstrSwitch dispatches instr to the matching method of visitor. It panics on an instruction type it does not know.
//
//gocyclo:ignore
func InstrSwitch(visitor InstrOp, instr ssa.Instruction) {
	switch instr := instr.(type) {
	case *ssa.DebugRef:
		visitor.DoDebugRef(instr)
	case *ssa.UnOp:
		visitor.DoUnOp(instr)
	case *ssa.Call:
		visitor.DoCall(instr)
	case *ssa.RunDefers:
		visitor.DoRunDefers(instr)
	case *ssa.Store:
		visitor.DoStore(instr)
	case *ssa.FieldAddr:
		visitor.DoFieldAddr(instr)
	case *ssa.IndexAddr:
		visitor.DoIndexAddr(instr)
	case *ssa.Phi:
		visitor.DoPhi(instr)
	case *ssa.Return:
		visitor.DoReturn(instr)
	case *ssa.Panic:
		visitor.DoPanic(instr)
	case *ssa.If:
		visitor.DoIf(instr)
	case *ssa.Jump:
		visitor.DoJump(instr)

	case *ssa.ChangeInterface:
		visitor.DoCast(instr, instr.X)
	case *ssa.ChangeType:
		visitor.DoCast(instr, instr.X)
	case *ssa.Convert:
		visitor.DoCast(instr, instr.X)
	case *ssa.MultiConvert:
		visitor.DoCast(instr, instr.X)
	case *ssa.SliceToArrayPointer:
		visitor.DoCast(instr, instr.X)
	case *ssa.MakeInterface:
		visitor.DoCast(instr, instr.X)

	case *ssa.Alloc:
		visitor.DoAlloc(instr)
	case *ssa.MakeChan:
		visitor.DoAlloc(instr, instr.Size)
	case *ssa.MakeSlice:
		visitor.DoAlloc(instr, instr.Len, instr.Cap)
	case *ssa.MakeMap:
		visitor.DoAlloc(instr, instr.Reserve)

	case *ssa.BinOp, *ssa.Extract, *ssa.Slice, *ssa.Send, *ssa.Defer, *ssa.Go, *ssa.Range, *ssa.Next, *ssa.Field,
		*ssa.Index, *ssa.Lookup, *ssa.MapUpdate, *ssa.TypeAssert, *ssa.MakeClosure, *ssa.Select:
		visitor.DoOpaque(instr)
	default:
		panic(fmt.Sprintf("unexpected instruction %T: %v", instr, instr))
	}
}

// LastInstr returns the last instruction of block, or nil when the block is empty. Only unreachable blocks are empty.
func LastInstr(block *ssa.BasicBlock) ssa.Instruction {
	if n := len(block.Instrs); n > 0 {
		return block.Instrs[n-1]
	}
	return nil
}

// GetArgs returns the arguments of a call, with the receiver first for an interface method call.
func GetArgs(instr ssa.CallInstruction) []ssa.Value {
	common := instr.Common()
	if !common.IsInvoke() {
		return common.Args
	}
	return append([]ssa.Value{common.Value}, common.Args...)
}

// Operands returns the non-nil operands of instr, in order.
func Operands(instr ssa.Instruction) []ssa.Value {
	var res []ssa.Value
	for _, op := range instr.Operands(nil) {
		if op != nil && *op != nil {
			res = append(res, *op)
		}
	}
	return res
}
