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

package ir

import (
	"fmt"

	"github.com/awslabs/ar-go-lockpath/internal/funcutil"
)

// A Builder constructs a Function. Values are referred to by name: the first use of a name that is neither a
// parameter nor an instruction result creates a Global. The names "null" and "undef" denote the Null constant.
type Builder struct {
	f      *Function
	values map[string]ValueID
	blocks map[string]BlockID
}

// NewBuilder returns a builder for a function named name.
func NewBuilder(name string) *Builder {
	return &Builder{
		f:      &Function{Name: name, Entry: 0},
		values: map[string]ValueID{},
		blocks: map[string]BlockID{},
	}
}

// Param adds a formal parameter.
func (b *Builder) Param(name string) ValueID {
	v := b.newValue(Value{Kind: Param, Name: name, Def: NoInstr})
	b.f.Params = append(b.f.Params, v)
	return v
}

// Block returns the block named name, creating it if necessary. The first block created is the entry block.
func (b *Builder) Block(name string) BlockID {
	if id, ok := b.blocks[name]; ok {
		return id
	}
	id := BlockID(len(b.f.Blocks))
	b.f.Blocks = append(b.f.Blocks, Block{Name: name})
	b.blocks[name] = id
	return id
}

// SetEntry sets the entry block.
func (b *Builder) SetEntry(name string) {
	b.f.Entry = b.Block(name)
}

// Edge adds a control-flow edge between two blocks.
func (b *Builder) Edge(from, to string) {
	src, dst := b.Block(from), b.Block(to)
	b.f.Blocks[src].Succs = append(b.f.Blocks[src].Succs, dst)
	b.f.Blocks[dst].Preds = append(b.f.Blocks[dst].Preds, src)
}

// Chain adds edges between consecutive blocks of names.
func (b *Builder) Chain(names ...string) {
	for i := 0; i+1 < len(names); i++ {
		b.Edge(names[i], names[i+1])
	}
}

// Value returns the value named name, creating a Global (or the Null constant) if it does not exist.
func (b *Builder) Value(name string) ValueID {
	if v, ok := b.values[name]; ok {
		return v
	}
	kind := Global
	if name == "null" || name == "undef" {
		kind = Null
	}
	return b.newValue(Value{Kind: kind, Name: name, Def: NoInstr})
}

// Const adds a non-null constant.
func (b *Builder) Const(name string) ValueID {
	if v, ok := b.values[name]; ok {
		return v
	}
	return b.newValue(Value{Kind: Const, Name: name, Def: NoInstr})
}

// Add appends an instruction to block. If result is not empty, the instruction produces a value with that name.
// An existing value with the same name that is not yet defined (e.g. used by a phi before its definition) is
// bound to this instruction.
func (b *Builder) Add(block string, instr Instr, result string, operands ...string) InstrID {
	blk := b.Block(block)
	id := InstrID(len(b.f.Instrs))
	instr.Block = blk
	instr.Result = NoValue
	instr.Operands = make([]ValueID, len(operands))
	for i, op := range operands {
		instr.Operands[i] = b.Value(op)
	}
	if result != "" {
		if v, ok := b.values[result]; ok && b.f.Values[v].Kind == Global {
			b.f.Values[v].Kind = Result
			b.f.Values[v].Def = id
			instr.Result = v
		} else {
			instr.Result = b.newValue(Value{Kind: Result, Name: result, Def: id})
		}
	}
	b.f.Instrs = append(b.f.Instrs, instr)
	b.f.Blocks[blk].Instrs = append(b.f.Blocks[blk].Instrs, id)
	return id
}

// Call appends a direct call to callee.
func (b *Builder) Call(block, callee, result string, args ...string) InstrID {
	return b.Add(block, Instr{Kind: Call, Callee: callee}, result, args...)
}

// Intrinsic appends a call to an intrinsic function.
func (b *Builder) Intrinsic(block, callee, result string, args ...string) InstrID {
	return b.Add(block, Instr{Kind: Call, Callee: callee, Intrinsic: true}, result, args...)
}

// IndirectCall appends a call whose callee is not resolved.
func (b *Builder) IndirectCall(block, result string, args ...string) InstrID {
	return b.Add(block, Instr{Kind: Call, Indirect: true}, result, args...)
}

// Load appends a load from addr.
func (b *Builder) Load(block, result, addr string) InstrID {
	return b.Add(block, Instr{Kind: Load}, result, addr)
}

// Store appends a store of val at addr.
func (b *Builder) Store(block, addr, val string) InstrID {
	return b.Add(block, Instr{Kind: Store}, "", addr, val)
}

// Term appends a terminator using the operands provided.
func (b *Builder) Term(block string, operands ...string) InstrID {
	return b.Add(block, Instr{Kind: Terminator}, "", operands...)
}

// Build returns the function. It returns an error if the function is not well-formed.
func (b *Builder) Build() (*Function, error) {
	if err := Validate(b.f); err != nil {
		return nil, err
	}
	return b.f, nil
}

// MustBuild is like Build but panics on error. It is meant for tests and static tables.
func (b *Builder) MustBuild() *Function {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

func (b *Builder) newValue(v Value) ValueID {
	id := ValueID(len(b.f.Values))
	b.f.Values = append(b.f.Values, v)
	if v.Name != "" {
		b.values[v.Name] = id
	}
	return id
}

// Validate checks that the indices of the function are consistent: the entry exists, edges are symmetric, every
// operand is a value of the function and every instruction belongs to the block listing it.
func Validate(f *Function) error {
	if len(f.Blocks) == 0 {
		return nil
	}
	if f.Entry < 0 || int(f.Entry) >= len(f.Blocks) {
		return fmt.Errorf("function %s: entry block %d out of range", f.Name, f.Entry)
	}
	for bi := range f.Blocks {
		blk := &f.Blocks[bi]
		for _, s := range blk.Succs {
			if s < 0 || int(s) >= len(f.Blocks) {
				return fmt.Errorf("function %s: block %s has invalid successor %d", f.Name, blk.Name, s)
			}
			if !funcutil.Contains(f.Blocks[s].Preds, BlockID(bi)) {
				return fmt.Errorf("function %s: edge %s -> %s missing from predecessors", f.Name, blk.Name,
					f.Blocks[s].Name)
			}
		}
		for _, p := range blk.Preds {
			if p < 0 || int(p) >= len(f.Blocks) {
				return fmt.Errorf("function %s: block %s has invalid predecessor %d", f.Name, blk.Name, p)
			}
			if !funcutil.Contains(f.Blocks[p].Succs, BlockID(bi)) {
				return fmt.Errorf("function %s: edge %s -> %s missing from successors", f.Name, f.Blocks[p].Name,
					blk.Name)
			}
		}
		for _, i := range blk.Instrs {
			if i < 0 || int(i) >= len(f.Instrs) {
				return fmt.Errorf("function %s: block %s has invalid instruction %d", f.Name, blk.Name, i)
			}
			if f.Instrs[i].Block != BlockID(bi) {
				return fmt.Errorf("function %s: instruction %d listed in %s but belongs to block %d", f.Name, i,
					blk.Name, f.Instrs[i].Block)
			}
		}
	}
	for i := range f.Instrs {
		for _, op := range f.Instrs[i].Operands {
			if !f.ValidValue(op) {
				return fmt.Errorf("function %s: instruction %d has invalid operand %d", f.Name, i, op)
			}
		}
	}
	for _, p := range f.Params {
		if !f.ValidValue(p) {
			return fmt.Errorf("function %s: invalid parameter %d", f.Name, p)
		}
	}
	return nil
}
