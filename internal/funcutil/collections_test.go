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

package funcutil

import (
	"reflect"
	"testing"
)

func TestMapParallelKeepsOrder(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	for _, n := range []int{0, 1, 4, 200} {
		out := MapParallel(in, func(x int) int { return x * x }, n)
		if len(out) != len(in) {
			t.Fatalf("expected %d results with %d routines, got %d", len(in), n, len(out))
		}
		for i, y := range out {
			if y != i*i {
				t.Fatalf("result %d is %d with %d routines", i, y, n)
			}
		}
	}
	if out := MapParallel([]int{}, func(x int) int { return x }, 2); len(out) != 0 {
		t.Errorf("expected no results, got %v", out)
	}
}

func TestMap(t *testing.T) {
	if got := Map([]string{"a", "bb"}, func(s string) int { return len(s) }); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("unexpected %v", got)
	}
	if got := Map(nil, func(s string) int { return len(s) }); len(got) != 0 {
		t.Errorf("unexpected %v", got)
	}
}

func TestContainsAndExists(t *testing.T) {
	if !Contains([]string{"a", "b"}, "b") || Contains([]string{"a"}, "c") {
		t.Errorf("Contains is wrong")
	}
	if !Exists([]int{1, 2, 3}, func(x int) bool { return x > 2 }) || Exists(nil, func(int) bool { return true }) {
		t.Errorf("Exists is wrong")
	}
}

func TestSetToOrderedSlice(t *testing.T) {
	got := SetToOrderedSlice(map[string]bool{"c": true, "a": true, "b": false})
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("unexpected %v", got)
	}
}
