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

// Package ir defines the program model the lock, path and dependency analyses run on.
//
// Functions are stored as arenas: blocks, instructions and values live in slices owned by the Function and refer
// to each other with integer indices. A Function is never mutated by an analysis; all analysis state is kept in
// side tables indexed by those integers.
package ir

import (
	"fmt"
	"strings"
)

// ValueID is the index of a value in its function's Values slice. It is the identity of a value: two operands
// refer to the same value iff their ValueIDs are equal.
type ValueID int32

// BlockID is the index of a block in its function's Blocks slice.
type BlockID int32

// InstrID is the index of an instruction in its function's Instrs slice.
type InstrID int32

const (
	// NoValue marks the absence of a value, e.g. the result of an instruction that does not produce one.
	NoValue ValueID = -1
	// NoInstr marks the absence of a defining instruction.
	NoInstr InstrID = -1
	// NoBlock marks the absence of a block.
	NoBlock BlockID = -1
)

// ValueKind is the kind of a value.
type ValueKind uint8

const (
	// Param is a formal parameter of the function
	Param ValueKind = iota
	// Const is a constant that is not null
	Const
	// Null is a null or undefined constant
	Null
	// Global is a global variable, or any name the function refers to without defining it
	Global
	// Func is a function used as a value
	Func
	// FreeVar is a variable captured by a closure
	FreeVar
	// Result is the value produced by an instruction
	Result
)

var valueKindNames = [...]string{"param", "const", "null", "global", "func", "freevar", "result"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", k)
}

// Value is a program value: a register, an address, an argument or a constant.
type Value struct {
	Kind ValueKind
	Name string
	// Def is the instruction producing the value when Kind is Result, NoInstr otherwise
	Def InstrID
}

// InstrKind is the kind of an instruction.
type InstrKind uint8

const (
	// Other is any instruction without a dedicated kind
	Other InstrKind = iota
	// Call is a function call. Operands are the call arguments.
	Call
	// Load reads memory. Operand 0 is the address.
	Load
	// Store writes memory. Operand 0 is the address and operand 1 the stored value.
	Store
	// Terminator ends a block (branch, jump, return, panic...)
	Terminator
	// Phi merges values flowing from predecessors
	Phi
	// Cast converts operand 0 without changing its identity
	Cast
	// Offset computes a constant offset from the address in operand 0
	Offset
	// Alloc allocates memory
	Alloc
)

var instrKindNames = [...]string{"other", "call", "load", "store", "term", "phi", "cast", "offset", "alloc"}

func (k InstrKind) String() string {
	if int(k) < len(instrKindNames) {
		return instrKindNames[k]
	}
	return fmt.Sprintf("InstrKind(%d)", k)
}

// Instr is an instruction. It belongs to exactly one block.
type Instr struct {
	Kind  InstrKind
	Block BlockID

	// Callee is the resolved name of the called function. Empty if the call is Indirect.
	Callee string
	// Indirect is true for calls whose callee cannot be resolved statically
	Indirect bool
	// Intrinsic is true for calls to compiler intrinsics and builtins
	Intrinsic bool

	// Operands are the values used by the instruction, in order. For calls, these are the arguments.
	Operands []ValueID
	// Result is the value produced by the instruction, or NoValue
	Result ValueID

	// Text is an optional textual representation used in reports
	Text string
}

// IsMemory returns true if the instruction reads or writes memory through an address operand.
func (i *Instr) IsMemory() bool {
	return i.Kind == Load || i.Kind == Store
}

// Arg returns the n-th operand of the instruction, or NoValue if there is no such operand.
func (i *Instr) Arg(n int) ValueID {
	if n < 0 || n >= len(i.Operands) {
		return NoValue
	}
	return i.Operands[n]
}

// Block is a basic block: a sequence of instructions with predecessor and successor edges.
type Block struct {
	Name   string
	Instrs []InstrID
	Preds  []BlockID
	Succs  []BlockID
}

// IsExit returns true when the block has no successors.
func (b *Block) IsExit() bool {
	return len(b.Succs) == 0
}

// Function is a function with its control-flow graph. The Function owns its blocks, instructions and values.
type Function struct {
	Name   string
	Params []ValueID
	Entry  BlockID
	Blocks []Block
	Instrs []Instr
	Values []Value
}

// Empty returns true when the function has no blocks.
func (f *Function) Empty() bool {
	return f == nil || len(f.Blocks) == 0
}

// Block returns a pointer to the block with index b.
func (f *Function) Block(b BlockID) *Block {
	return &f.Blocks[b]
}

// Instr returns a pointer to the instruction with index i.
func (f *Function) Instr(i InstrID) *Instr {
	return &f.Instrs[i]
}

// Value returns a pointer to the value with index v.
func (f *Function) Value(v ValueID) *Value {
	return &f.Values[v]
}

// ValidValue returns true if v indexes a value of f.
func (f *Function) ValidValue(v ValueID) bool {
	return v >= 0 && int(v) < len(f.Values)
}

// NumInstrs returns the number of instructions in the function.
func (f *Function) NumInstrs() int {
	return len(f.Instrs)
}

// Terminator returns the last instruction of block b if it is a terminator, otherwise NoInstr.
func (f *Function) Terminator(b BlockID) InstrID {
	instrs := f.Blocks[b].Instrs
	if len(instrs) == 0 {
		return NoInstr
	}
	last := instrs[len(instrs)-1]
	if f.Instrs[last].Kind != Terminator {
		return NoInstr
	}
	return last
}

// ValueName returns a printable name for v.
func (f *Function) ValueName(v ValueID) string {
	if !f.ValidValue(v) {
		return "<none>"
	}
	val := f.Values[v]
	if val.Name != "" {
		return val.Name
	}
	return fmt.Sprintf("%%%d", v)
}

// InstrString returns a printable representation of instruction i.
func (f *Function) InstrString(i InstrID) string {
	instr := &f.Instrs[i]
	if instr.Text != "" {
		return instr.Text
	}
	var b strings.Builder
	if instr.Result != NoValue {
		b.WriteString(f.ValueName(instr.Result))
		b.WriteString(" = ")
	}
	b.WriteString(instr.Kind.String())
	if instr.Kind == Call {
		b.WriteByte(' ')
		if instr.Indirect {
			b.WriteString("<indirect>")
		} else {
			b.WriteString(instr.Callee)
		}
	}
	for j, op := range instr.Operands {
		if j == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.ValueName(op))
	}
	return b.String()
}

// Module is a set of functions analyzed together.
type Module struct {
	Name      string
	Functions []*Function
}

// Lookup returns the function named name in the module, or nil.
func (m *Module) Lookup(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
