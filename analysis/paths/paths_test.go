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

package paths

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

// cfg builds a function with one terminator per block and the edges provided as "a->b" strings
func cfg(t *testing.T, blocks []string, edges ...string) (*ir.Builder, *ir.Function) {
	t.Helper()
	b := ir.NewBuilder("f")
	for _, name := range blocks {
		b.Term(name)
	}
	for _, e := range edges {
		from, to, ok := strings.Cut(e, "->")
		if !ok {
			t.Fatalf("bad edge %q", e)
		}
		b.Edge(from, to)
	}
	f, err := b.Build()
	if err != nil {
		t.Fatalf("invalid function: %v", err)
	}
	return b, f
}

func formatAll(f *ir.Function, paths []Path) []string {
	var s []string
	for _, p := range paths {
		s = append(s, p.Format(f))
	}
	return s
}

func TestStraightLine(t *testing.T) {
	_, f := cfg(t, []string{"entry", "a", "b", "exit"}, "entry->a", "a->b", "b->exit")
	for k := 0; k < 3; k++ {
		res := Enumerate(f, 10, k)
		if len(res.Paths) != 1 || res.ReachedLimit {
			t.Fatalf("expected exactly one path with maxLoopIterations %d, got %v", k, formatAll(f, res.Paths))
		}
		if got := res.Paths[0].Format(f); got != "entry -> a -> b -> exit" {
			t.Errorf("unexpected path %s", got)
		}
	}
}

func TestDiamond(t *testing.T) {
	_, f := cfg(t, []string{"entry", "a", "b", "exit"}, "entry->a", "entry->b", "a->exit", "b->exit")
	res := Enumerate(f, 2, 1)
	if len(res.Paths) != 2 || res.ReachedLimit {
		t.Fatalf("expected 2 paths without reaching the limit, got %v (%v)", formatAll(f, res.Paths),
			res.ReachedLimit)
	}
	got := formatAll(f, res.Paths)
	if got[0] != "entry -> a -> exit" || got[1] != "entry -> b -> exit" {
		t.Errorf("unexpected paths %v", got)
	}

	res = Enumerate(f, 1, 1)
	if len(res.Paths) != 1 || !res.ReachedLimit {
		t.Errorf("expected the limit to be reached with 1 path, got %v", formatAll(f, res.Paths))
	}
}

func TestSelfLoop(t *testing.T) {
	b, f := cfg(t, []string{"entry", "loop", "exit"}, "entry->loop", "loop->loop", "loop->exit")
	loop := b.Block("loop")
	for k := 0; k <= 3; k++ {
		res := Enumerate(f, 100, k)
		if len(res.Paths) != k+1 || res.ReachedLimit {
			t.Fatalf("k=%d: expected %d paths, got %v", k, k+1, formatAll(f, res.Paths))
		}
		seen := map[int]bool{}
		for _, p := range res.Paths {
			n := p.Count(loop)
			if n < 1 || n > k+1 {
				t.Errorf("k=%d: loop block occurs %d times in %s", k, n, p.Format(f))
			}
			seen[n] = true
		}
		if len(seen) != k+1 {
			t.Errorf("k=%d: expected every repetition count from 1 to %d, got %v", k, k+1, seen)
		}
	}

	res := Enumerate(f, 2, 5)
	if len(res.Paths) != 2 || !res.ReachedLimit {
		t.Errorf("expected exactly 2 paths and the limit reached, got %d (%v)", len(res.Paths), res.ReachedLimit)
	}
}

func TestVisitCountsArePerBranch(t *testing.T) {
	// both branches go through join; a global visit count would prune the second one
	_, f := cfg(t, []string{"entry", "a", "b", "join", "exit"},
		"entry->a", "entry->b", "a->join", "b->join", "join->exit")
	res := Enumerate(f, 10, 0)
	if len(res.Paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", formatAll(f, res.Paths))
	}
}

func TestCappedLoopWithoutExitIsDropped(t *testing.T) {
	// the loop a <-> b never exits: nothing is recorded, but the branch to exit is
	_, f := cfg(t, []string{"entry", "a", "b", "exit"}, "entry->a", "entry->exit", "a->b", "b->a")
	res := Enumerate(f, 10, 2)
	if got := formatAll(f, res.Paths); len(got) != 1 || got[0] != "entry -> exit" {
		t.Errorf("expected only the path to exit, got %v", got)
	}
}

func TestNestedLoopsRespectBound(t *testing.T) {
	b, f := cfg(t, []string{"entry", "h1", "h2", "body", "exit"},
		"entry->h1", "h1->h2", "h2->body", "body->h2", "h2->h1", "h1->exit")
	for k := 0; k <= 2; k++ {
		res := Enumerate(f, 1000, k)
		if len(res.Paths) == 0 {
			t.Fatalf("k=%d: expected some paths", k)
		}
		for _, p := range res.Paths {
			for blk := range f.Blocks {
				if n := p.Count(ir.BlockID(blk)); n > k+1 {
					t.Errorf("k=%d: block %s occurs %d times in %s", k, f.Blocks[blk].Name, n, p.Format(f))
				}
			}
			if p[0] != b.Block("entry") || p[len(p)-1] != b.Block("exit") {
				t.Errorf("path %s does not go from entry to exit", p.Format(f))
			}
		}
	}
}

func TestManyPaths(t *testing.T) {
	// a chain of 12 diamonds has 4096 paths
	var blocks, edges []string
	blocks = append(blocks, "n0")
	for i := 0; i < 12; i++ {
		l, r, n := fmt.Sprintf("l%d", i), fmt.Sprintf("r%d", i), fmt.Sprintf("n%d", i+1)
		blocks = append(blocks, l, r, n)
		edges = append(edges, fmt.Sprintf("n%d->%s", i, l), fmt.Sprintf("n%d->%s", i, r), l+"->"+n, r+"->"+n)
	}
	_, f := cfg(t, blocks, edges...)
	if res := Enumerate(f, 5000, 1); len(res.Paths) != 4096 || res.ReachedLimit {
		t.Errorf("expected 4096 paths, got %d (%v)", len(res.Paths), res.ReachedLimit)
	}
	if res := Enumerate(f, 100, 1); len(res.Paths) != 100 || !res.ReachedLimit {
		t.Errorf("expected 100 paths, got %d (%v)", len(res.Paths), res.ReachedLimit)
	}
}

func TestInstructions(t *testing.T) {
	b := ir.NewBuilder("f")
	b.Param("l")
	c1 := b.Call("entry", "mutex_lock", "", "l")
	t1 := b.Term("entry")
	c2 := b.Call("exit", "mutex_unlock", "", "l")
	t2 := b.Term("exit")
	b.Edge("entry", "exit")
	f := b.MustBuild()

	res := Enumerate(f, 10, 1)
	got := Instructions(f, res.Paths[0])
	want := []ir.InstrID{c1, t1, c2, t2}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEmptyAndLimitWarnings(t *testing.T) {
	var buf bytes.Buffer
	e := Enumerator{MaxPaths: 1, MaxLoopIterations: 1, Logger: config.NewLogGroupAt(config.WarnLevel, &buf)}
	if res := e.Run(&ir.Function{Name: "empty"}); len(res.Paths) != 0 || res.ReachedLimit {
		t.Errorf("expected no paths for an empty function")
	}
	_, f := cfg(t, []string{"entry", "a", "b"}, "entry->a", "entry->b")
	e.Run(f)
	out := buf.String()
	if !strings.Contains(out, "empty is empty") || !strings.Contains(out, "limit (1) reached") {
		t.Errorf("unexpected warnings %q", out)
	}
}

func TestNewEnumerator(t *testing.T) {
	c := config.NewDefault()
	c.MaxPaths = 7
	e := NewEnumerator(c, nil)
	if e.MaxPaths != 7 || e.MaxLoopIterations != config.DefaultMaxLoopIterations {
		t.Errorf("unexpected enumerator %+v", e)
	}
}
