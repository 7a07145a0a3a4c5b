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

// Dependence is the answer of a dependence oracle.
type Dependence uint8

const (
	// DependenceUnknown means the oracle could not decide. Clients treat it as no dependence.
	DependenceUnknown Dependence = iota
	// DependenceYes means the two instructions may access overlapping storage
	DependenceYes
	// DependenceNo means the two instructions access disjoint storage
	DependenceNo
)

func (d Dependence) String() string {
	switch d {
	case DependenceYes:
		return "yes"
	case DependenceNo:
		return "no"
	default:
		return "unknown"
	}
}

// An Oracle answers whether two memory-touching instructions of the same block depend on each other.
// earlier precedes later in the block.
type Oracle interface {
	Depends(f *Function, earlier, later InstrID) Dependence
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(f *Function, earlier, later InstrID) Dependence

// Depends calls o.
func (o OracleFunc) Depends(f *Function, earlier, later InstrID) Dependence {
	return o(f, earlier, later)
}

// AddressOracle decides dependence from the canonical addresses of the two instructions. Two loads never
// depend on each other. Accesses to the same canonical address depend on each other; accesses to two distinct
// allocations or globals do not. Everything else is unknown.
type AddressOracle struct{}

// Depends implements Oracle.
func (AddressOracle) Depends(f *Function, earlier, later InstrID) Dependence {
	a, b := &f.Instrs[earlier], &f.Instrs[later]
	if !a.IsMemory() || !b.IsMemory() || len(a.Operands) == 0 || len(b.Operands) == 0 {
		return DependenceUnknown
	}
	if a.Kind == Load && b.Kind == Load {
		return DependenceNo
	}
	x, y := Canonicalize(f, a.Operands[0]), Canonicalize(f, b.Operands[0])
	if x == y {
		return DependenceYes
	}
	if isDistinctObject(f, x) && isDistinctObject(f, y) {
		return DependenceNo
	}
	return DependenceUnknown
}

// isDistinctObject returns true if v denotes a memory object that cannot alias another such object.
func isDistinctObject(f *Function, v ValueID) bool {
	if !f.ValidValue(v) {
		return false
	}
	val := &f.Values[v]
	switch val.Kind {
	case Global:
		return true
	case Result:
		return val.Def != NoInstr && f.Instrs[val.Def].Kind == Alloc
	}
	return false
}
