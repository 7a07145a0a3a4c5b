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
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// The YAML program format describes a module by hand, which is useful for programs that were not produced from
// Go sources (e.g. C-like code using pthread names) and for tests. Example:
//
//	module: example
//	functions:
//	  - name: worker
//	    params: [m]
//	    blocks:
//	      - name: entry
//	        succs: [exit]
//	        instrs:
//	          - {op: call, callee: pthread_mutex_lock, args: [m]}
//	      - name: exit
//	        instrs:
//	          - {op: call, callee: pthread_mutex_unlock, args: [m]}
//	          - {op: ret}

// ModuleSpec is the YAML representation of a module.
type ModuleSpec struct {
	Module    string         `yaml:"module"`
	Functions []FunctionSpec `yaml:"functions"`
}

// FunctionSpec is the YAML representation of a function.
type FunctionSpec struct {
	Name   string      `yaml:"name"`
	Params []string    `yaml:"params"`
	Entry  string      `yaml:"entry"`
	Blocks []BlockSpec `yaml:"blocks"`
}

// BlockSpec is the YAML representation of a block.
type BlockSpec struct {
	Name   string      `yaml:"name"`
	Succs  []string    `yaml:"succs"`
	Instrs []InstrSpec `yaml:"instrs"`
}

// InstrSpec is the YAML representation of an instruction.
type InstrSpec struct {
	Op        string   `yaml:"op"`
	Callee    string   `yaml:"callee"`
	Indirect  bool     `yaml:"indirect"`
	Intrinsic bool     `yaml:"intrinsic"`
	Args      []string `yaml:"args"`
	Result    string   `yaml:"result"`
	Text      string   `yaml:"text"`
}

var opKinds = map[string]InstrKind{
	"call":   Call,
	"load":   Load,
	"store":  Store,
	"phi":    Phi,
	"cast":   Cast,
	"offset": Offset,
	"gep":    Offset,
	"alloc":  Alloc,
	"alloca": Alloc,
	"br":     Terminator,
	"jmp":    Terminator,
	"ret":    Terminator,
	"panic":  Terminator,
	"term":   Terminator,
	"other":  Other,
}

// LoadModule reads a module in the YAML program format from filename.
func LoadModule(filename string) (*Module, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program file: %w", err)
	}
	m, err := ParseModule(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if m.Name == "" {
		m.Name = filename
	}
	return m, nil
}

// ParseModule parses a module in the YAML program format.
func ParseModule(content []byte) (*Module, error) {
	var spec ModuleSpec
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, fmt.Errorf("could not unmarshal program: %w", err)
	}
	m := &Module{Name: spec.Module}
	for _, fs := range spec.Functions {
		f, err := fs.build()
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, f)
	}
	return m, nil
}

func (fs FunctionSpec) build() (*Function, error) {
	if fs.Name == "" {
		return nil, fmt.Errorf("function without a name")
	}
	b := NewBuilder(fs.Name)
	for _, p := range fs.Params {
		b.Param(p)
	}
	// blocks are created first so that edges and the entry can refer to any block
	declared := map[string]bool{}
	for _, bs := range fs.Blocks {
		if bs.Name == "" {
			return nil, fmt.Errorf("function %s: block without a name", fs.Name)
		}
		if declared[bs.Name] {
			return nil, fmt.Errorf("function %s: duplicate block %q", fs.Name, bs.Name)
		}
		declared[bs.Name] = true
		b.Block(bs.Name)
	}
	if fs.Entry != "" {
		if !declared[fs.Entry] {
			return nil, fmt.Errorf("function %s: unknown entry block %q", fs.Name, fs.Entry)
		}
		b.SetEntry(fs.Entry)
	}
	for _, bs := range fs.Blocks {
		for _, s := range bs.Succs {
			if !declared[s] {
				return nil, fmt.Errorf("function %s: block %s has unknown successor %q", fs.Name, bs.Name, s)
			}
			b.Edge(bs.Name, s)
		}
		for k, is := range bs.Instrs {
			kind, ok := opKinds[strings.ToLower(is.Op)]
			if !ok {
				return nil, fmt.Errorf("function %s: block %s: instruction %d has unknown op %q", fs.Name, bs.Name,
					k, is.Op)
			}
			if kind == Call && is.Callee == "" && !is.Indirect {
				return nil, fmt.Errorf("function %s: block %s: call %d needs a callee or indirect: true", fs.Name,
					bs.Name, k)
			}
			instr := Instr{
				Kind:      kind,
				Callee:    is.Callee,
				Indirect:  is.Indirect,
				Intrinsic: is.Intrinsic,
				Text:      is.Text,
			}
			if instr.Indirect {
				instr.Callee = ""
			}
			b.Add(bs.Name, instr, is.Result, is.Args...)
		}
	}
	return b.Build()
}
