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

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis"
	"github.com/awslabs/ar-go-lockpath/internal/formatutil"
)

func init() {
	formatutil.IsColorEnabled = func() bool { return false }
}

func leakyReport() analysis.FunctionReport {
	return analysis.FunctionReport{
		Function:     "leaky",
		Blocks:       3,
		Instructions: 4,
		Converged:    true,
		Locks: []analysis.BlockLocks{
			{Block: "entry", In: []string{}, Out: []string{"m"}},
			{Block: "unlock", In: []string{"m"}, Out: []string{}},
			{Block: "done", In: []string{"m"}, Out: []string{"m"}},
		},
		CriticalInstructions: 3,
		CriticalPercent:      75,
		LockUsage:            map[string]int{"m": 3},
		NumPaths:             2,
		Paths: []analysis.PathReport{
			{Path: "entry -> unlock -> done"},
			{Path: "entry -> done", Depth: 1, Unbalanced: true},
		},
		UnbalancedPaths: 1,
	}
}

func TestWriteFunction(t *testing.T) {
	var buf bytes.Buffer
	WriteFunction(&buf, leakyReport(), 0)
	out := buf.String()
	for _, want := range []string{
		"function leaky (3 blocks, 4 instructions)",
		"in: {m} out: {m}",
		"critical: 3/4 instructions (75.0%)",
		"lock usage: m: 3",
		"paths: 2, 1 unbalanced",
		"entry -> done | depth 1 | fan-out 0 | chain 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "nested") {
		t.Errorf("leaky does not nest locks:\n%s", out)
	}
}

func TestWriteFunctionPathsLimit(t *testing.T) {
	var buf bytes.Buffer
	WriteFunction(&buf, leakyReport(), 1)
	out := buf.String()
	if !strings.Contains(out, "... 1 more") || strings.Contains(out, "entry -> done |") {
		t.Errorf("expected only the first path to be printed:\n%s", out)
	}
}

func TestWriteEmptyFunction(t *testing.T) {
	var buf bytes.Buffer
	WriteFunction(&buf, analysis.FunctionReport{Function: "empty"}, 0)
	if out := buf.String(); !strings.Contains(out, "empty") || strings.Contains(out, "paths") {
		t.Errorf("unexpected output for an empty function:\n%s", out)
	}
}

func TestWriteStatistics(t *testing.T) {
	var buf bytes.Buffer
	WriteStatistics(&buf, analysis.Statistics{
		NumberOfFunctions:         4,
		NumberOfNonemptyFunctions: 3,
		NumberOfCalls:             6,
		Calls:                     map[string]uint{"release": 2, "acquire": 2},
	})
	out := buf.String()
	if !strings.Contains(out, "# functions          : 4 (3 non-empty)") {
		t.Errorf("missing function count:\n%s", out)
	}
	if strings.Index(out, "acquire") > strings.Index(out, "release") {
		t.Errorf("classes should be sorted:\n%s", out)
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	WriteResult(&buf, &analysis.ModuleResult{
		Pass: "path-enumerator",
		Results: []analysis.PassResult{
			&analysis.PathsResult{Function: "f", NumPaths: 2},
			&analysis.PathsResult{Function: "g", NumPaths: 1, ReachedLimit: true},
		},
	})
	want := "path-enumerator: 2 functions\n  f: 2 paths\n  g: 1 paths (limit reached)\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []analysis.FunctionReport{leakyReport()}); err != nil {
		t.Fatalf("failed to write json: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["function"] != "leaky" || decoded[0]["unbalanced-paths"] != float64(1) {
		t.Errorf("unexpected json %v", decoded)
	}
}
