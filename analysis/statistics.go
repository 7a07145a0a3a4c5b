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

package analysis

import (
	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

// Statistics are general statistics about a module.
type Statistics struct {
	NumberOfFunctions         uint `json:"functions"`
	NumberOfNonemptyFunctions uint `json:"nonempty-functions"`
	NumberOfBlocks            uint `json:"blocks"`
	NumberOfInstructions      uint `json:"instructions"`
	NumberOfCalls             uint `json:"calls"`
	NumberOfIndirectCalls     uint `json:"indirect-calls"`

	// Calls counts the resolved calls of each class
	Calls map[string]uint `json:"classified-calls"`
}

// ModuleStatistics returns the statistics of m. Calls are classified with c.
func ModuleStatistics(m *ir.Module, c *classify.Classifier) Statistics {
	result := Statistics{Calls: map[string]uint{}}

	for _, f := range m.Functions {
		result.NumberOfFunctions++
		if f.Empty() {
			continue
		}
		result.NumberOfNonemptyFunctions++
		result.NumberOfBlocks += uint(len(f.Blocks))
		result.NumberOfInstructions += uint(f.NumInstrs())
		for i := range f.Instrs {
			instr := &f.Instrs[i]
			if instr.Kind != ir.Call || instr.Intrinsic {
				continue
			}
			result.NumberOfCalls++
			if instr.Indirect {
				result.NumberOfIndirectCalls++
				continue
			}
			if class := c.Classify(instr.Callee); class != classify.Unknown {
				result.Calls[class.String()]++
			}
		}
	}

	return result
}
