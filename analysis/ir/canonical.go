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

// Canonicalize returns the base value of v: casts and constant-offset address computations are unwrapped until a
// value that is not defined by such an instruction is reached. Two values denote the same lock iff their canonical
// values are equal.
func Canonicalize(f *Function, v ValueID) ValueID {
	// a well-formed function has no cycle of casts, but the bound keeps this total on malformed input
	for steps := 0; steps <= len(f.Values); steps++ {
		if !f.ValidValue(v) {
			return v
		}
		val := &f.Values[v]
		if val.Kind != Result || val.Def == NoInstr {
			return v
		}
		def := &f.Instrs[val.Def]
		if (def.Kind != Cast && def.Kind != Offset) || len(def.Operands) == 0 {
			return v
		}
		v = def.Operands[0]
	}
	return v
}

// IsNull returns true if v is a null or undefined constant.
func IsNull(f *Function, v ValueID) bool {
	return f.ValidValue(v) && f.Values[v].Kind == Null
}
