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
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// IsExternal returns true if function is external (in ssa, when Blocks is nil)
func IsExternal(function *ssa.Function) bool {
	// This is indicated in the ssa documentation
	return function.Blocks == nil
}

// IterateInstructions iterates through all the instructions in the function, in block order.
func IterateInstructions(function *ssa.Function, f func(index int, instruction ssa.Instruction)) {
	// If this is an external function, return.
	if function.Blocks == nil {
		return
	}

	for _, block := range function.Blocks {
		for index, instruction := range block.Instrs {
			f(index, instruction)
		}
	}
}

// Defers returns the defer instructions of the function in the order they appear in its blocks.
func Defers(function *ssa.Function) []*ssa.Defer {
	var defers []*ssa.Defer
	IterateInstructions(function, func(_ int, instruction ssa.Instruction) {
		if d, ok := instruction.(*ssa.Defer); ok {
			defers = append(defers, d)
		}
	})
	return defers
}

// PackageFunctions returns the functions declared in pkg: its member functions, the methods of its named types
// (through both T and *T) and the anonymous functions nested in any of them. The result may contain duplicates and
// synthetic wrappers.
func PackageFunctions(prog *ssa.Program, pkg *ssa.Package) []*ssa.Function {
	var res []*ssa.Function
	var add func(f *ssa.Function)
	add = func(f *ssa.Function) {
		if f == nil {
			return
		}
		res = append(res, f)
		for _, anon := range f.AnonFuncs {
			add(anon)
		}
	}
	for _, member := range pkg.Members {
		switch member := member.(type) {
		case *ssa.Function:
			add(member)
		case *ssa.Type:
			t := member.Type()
			if _, isAlias := t.(*types.Alias); isAlias || types.IsInterface(t) {
				continue
			}
			if named, ok := t.(*types.Named); ok && named.TypeParams().Len() > 0 {
				// methods of generic types only exist as instantiations
				continue
			}
			for _, typ := range []types.Type{t, types.NewPointer(t)} {
				mset := prog.MethodSets.MethodSet(typ)
				for i := 0; i < mset.Len(); i++ {
					add(prog.MethodValue(mset.At(i)))
				}
			}
		}
	}
	return res
}
