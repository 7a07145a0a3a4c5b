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

package lang

import (
	"go/token"
	"sort"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	fn "github.com/awslabs/ar-go-lockpath/internal/funcutil"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Lower translates the SSA form of function into an ir.Function.
//
// Blocks keep their SSA indices. Static calls are named with the callee's fully qualified name (e.g.
// "(*sync.Mutex).Lock"), calls through interfaces or function values are indirect, and a RunDefers instruction is
// expanded into the deferred calls of the function in reverse order. External functions lower to an empty function.
func Lower(function *ssa.Function) *ir.Function {
	l := &lowering{
		f:      &ir.Function{Name: function.String(), Entry: 0},
		values: map[ssa.Value]ir.ValueID{},
		consts: map[string]ir.ValueID{},
		defers: Defers(function),
	}
	for _, p := range function.Params {
		l.f.Params = append(l.f.Params, l.newValue(p, ir.Param, p.Name()))
	}
	for _, fv := range function.FreeVars {
		l.newValue(fv, ir.FreeVar, fv.Name())
	}
	if IsExternal(function) {
		return l.f
	}
	for _, b := range function.Blocks {
		l.f.Blocks = append(l.f.Blocks, ir.Block{Name: blockName(b)})
	}
	// Results are created before any instruction is lowered so that phis can refer to values defined later.
	IterateInstructions(function, func(_ int, instr ssa.Instruction) {
		if v, ok := instr.(ssa.Value); ok {
			l.newValue(v, ir.Result, v.Name())
		}
	})
	for _, b := range function.Blocks {
		blk := &l.f.Blocks[b.Index]
		for _, s := range b.Succs {
			blk.Succs = append(blk.Succs, ir.BlockID(s.Index))
		}
		for _, p := range b.Preds {
			blk.Preds = append(blk.Preds, ir.BlockID(p.Index))
		}
		l.block = ir.BlockID(b.Index)
		for _, instr := range b.Instrs {
			InstrSwitch(l, instr)
		}
	}
	return l.f
}

// LowerProgram lowers every function of prog that has a body and satisfies filter. Functions are sorted by name.
// A nil filter accepts every function.
//
// ssautil.AllFunctions omits the methods of unexported types that are never converted to an interface, so the
// functions declared by each package are added explicitly.
func LowerProgram(prog *ssa.Program, filter func(*ssa.Function) bool) *ir.Module {
	seen := map[*ssa.Function]bool{}
	var functions []*ssa.Function
	add := func(f *ssa.Function) {
		if seen[f] {
			return
		}
		seen[f] = true
		if IsExternal(f) || (filter != nil && !filter(f)) {
			return
		}
		functions = append(functions, f)
	}
	for _, pkg := range prog.AllPackages() {
		for _, f := range PackageFunctions(prog, pkg) {
			add(f)
		}
	}
	for f := range ssautil.AllFunctions(prog) {
		add(f)
	}
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].String() < functions[j].String()
	})
	return &ir.Module{Functions: fn.Map(functions, Lower)}
}

// PackageFilter returns a filter accepting the functions whose package path satisfies match. Synthetic functions
// without a package are rejected.
func PackageFilter(match func(string) bool) func(*ssa.Function) bool {
	return func(f *ssa.Function) bool {
		pkg := f.Package()
		if pkg == nil && f.Origin() != nil {
			pkg = f.Origin().Package()
		}
		return pkg != nil && pkg.Pkg != nil && match(pkg.Pkg.Path())
	}
}

func blockName(b *ssa.BasicBlock) string {
	if b.Comment == "" {
		return b.String()
	}
	return b.String() + "." + b.Comment
}

// lowering implements InstrOp; each method appends the translation of one SSA instruction to the current block.
type lowering struct {
	f      *ir.Function
	values map[ssa.Value]ir.ValueID
	consts map[string]ir.ValueID
	defers []*ssa.Defer
	block  ir.BlockID
}

func (l *lowering) newValue(v ssa.Value, kind ir.ValueKind, name string) ir.ValueID {
	id := ir.ValueID(len(l.f.Values))
	l.f.Values = append(l.f.Values, ir.Value{Kind: kind, Name: name, Def: ir.NoInstr})
	l.values[v] = id
	return id
}

func (l *lowering) value(v ssa.Value) ir.ValueID {
	if id, ok := l.values[v]; ok {
		return id
	}
	switch v := v.(type) {
	case *ssa.Const:
		name := v.Name()
		if id, ok := l.consts[name]; ok {
			l.values[v] = id
			return id
		}
		kind := ir.Const
		if v.IsNil() {
			kind = ir.Null
		}
		id := l.newValue(v, kind, name)
		l.consts[name] = id
		return id
	case *ssa.Global:
		return l.newValue(v, ir.Global, v.String())
	case *ssa.Function:
		return l.newValue(v, ir.Func, v.String())
	case *ssa.Builtin:
		return l.newValue(v, ir.Func, v.Name())
	default:
		return l.newValue(v, ir.Global, v.Name())
	}
}

// emit appends instr to the current block. The result of source, if it is a value, becomes the result of instr.
func (l *lowering) emit(source ssa.Instruction, instr ir.Instr, operands ...ssa.Value) {
	id := ir.InstrID(len(l.f.Instrs))
	instr.Block = l.block
	instr.Result = ir.NoValue
	for _, op := range operands {
		if op != nil {
			instr.Operands = append(instr.Operands, l.value(op))
		}
	}
	if v, ok := source.(ssa.Value); ok {
		if r, ok := l.values[v]; ok {
			instr.Result = r
			l.f.Values[r].Def = id
		}
		if instr.Text == "" {
			instr.Text = v.Name() + " = " + v.String()
		}
	} else if instr.Text == "" {
		instr.Text = source.String()
	}
	l.f.Instrs = append(l.f.Instrs, instr)
	l.f.Blocks[l.block].Instrs = append(l.f.Blocks[l.block].Instrs, id)
}

// call lowers a call whose target is described by common.
func (l *lowering) call(source ssa.Instruction, common *ssa.CallCommon, args []ssa.Value, text string) {
	instr := ir.Instr{Kind: ir.Call, Text: text}
	if common.IsInvoke() {
		instr.Indirect = true
	} else if b, ok := common.Value.(*ssa.Builtin); ok {
		instr.Callee = b.Name()
		instr.Intrinsic = true
	} else if callee := common.StaticCallee(); callee != nil {
		instr.Callee = callee.String()
	} else {
		instr.Indirect = true
	}
	l.emit(source, instr, args...)
}

func (l *lowering) DoDebugRef(*ssa.DebugRef) {}

func (l *lowering) DoUnOp(x *ssa.UnOp) {
	if x.Op == token.MUL {
		l.emit(x, ir.Instr{Kind: ir.Load}, x.X)
		return
	}
	l.DoOpaque(x)
}

func (l *lowering) DoCall(x *ssa.Call) { l.call(x, x.Common(), GetArgs(x), "") }

// DoRunDefers expands into the deferred calls, last deferred first. Every defer of the function is included,
// whether or not it executed on the path reaching this point.
func (l *lowering) DoRunDefers(x *ssa.RunDefers) {
	for i := len(l.defers) - 1; i >= 0; i-- {
		d := l.defers[i]
		l.call(x, d.Common(), GetArgs(d), "rundefers: "+d.Common().String())
	}
}

func (l *lowering) DoStore(x *ssa.Store) {
	l.emit(x, ir.Instr{Kind: ir.Store}, x.Addr, x.Val)
}

func (l *lowering) DoFieldAddr(x *ssa.FieldAddr) {
	l.emit(x, ir.Instr{Kind: ir.Offset}, x.X)
}

func (l *lowering) DoIndexAddr(x *ssa.IndexAddr) {
	if _, ok := x.Index.(*ssa.Const); ok {
		l.emit(x, ir.Instr{Kind: ir.Offset}, x.X)
		return
	}
	l.DoOpaque(x)
}

func (l *lowering) DoPhi(x *ssa.Phi) {
	l.emit(x, ir.Instr{Kind: ir.Phi}, x.Edges...)
}

func (l *lowering) DoReturn(x *ssa.Return) {
	l.emit(x, ir.Instr{Kind: ir.Terminator}, x.Results...)
}

func (l *lowering) DoPanic(x *ssa.Panic) {
	l.emit(x, ir.Instr{Kind: ir.Terminator}, x.X)
}

func (l *lowering) DoIf(x *ssa.If) {
	l.emit(x, ir.Instr{Kind: ir.Terminator}, x.Cond)
}

func (l *lowering) DoJump(x *ssa.Jump) {
	l.emit(x, ir.Instr{Kind: ir.Terminator})
}

func (l *lowering) DoCast(instr ssa.Instruction, x ssa.Value) {
	l.emit(instr, ir.Instr{Kind: ir.Cast}, x)
}

func (l *lowering) DoAlloc(instr ssa.Instruction, sizes ...ssa.Value) {
	l.emit(instr, ir.Instr{Kind: ir.Alloc}, sizes...)
}

func (l *lowering) DoOpaque(instr ssa.Instruction) {
	l.emit(instr, ir.Instr{Kind: ir.Other}, Operands(instr)...)
}
