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

package lockdepth

import (
	"testing"

	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/paths"
)

func branchy() *ir.Function {
	b := ir.NewBuilder("f")
	b.Param("l")
	b.Call("entry", "pthread_mutex_lock", "", "l")
	b.Term("entry")
	b.Call("ok", "pthread_mutex_unlock", "", "l")
	b.Term("ok")
	b.Term("fail")
	b.Chain("entry", "ok")
	b.Chain("entry", "fail")
	return b.MustBuild()
}

func TestTrack(t *testing.T) {
	f := branchy()
	res := paths.Enumerate(f, 10, 1)
	if len(res.Paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(res.Paths))
	}
	ok := Track(f, res.Paths[0])
	if ok.Depth != 0 || ok.Unbalanced || ok.MaxDepth != 1 {
		t.Errorf("path through ok should be balanced, got %+v", ok)
	}
	fail := Track(f, res.Paths[1])
	if fail.Depth != 1 || !fail.Unbalanced {
		t.Errorf("path through fail should be unbalanced, got %+v", fail)
	}
}

func TestOnlyExactNamesCount(t *testing.T) {
	b := ir.NewBuilder("f")
	b.Param("a")
	b.Param("c")
	// mtx_lock is an acquire for the classifier, but not for the depth tracker
	b.Call("entry", "mtx_lock", "", "a")
	b.Call("entry", "my_lock_helper", "", "a")
	b.IndirectCall("entry", "", "a")
	// acquiring a and releasing c balances the depth
	b.Call("entry", "spin_lock", "", "a")
	b.Call("entry", "spin_unlock", "", "c")
	b.Call("entry", "release_lock", "", "c")
	b.Term("entry")
	f := b.MustBuild()

	p := paths.Path{f.Entry}
	if got := Track(f, p); got.Depth != -1 || !got.Unbalanced {
		t.Errorf("expected depth -1, got %+v", got)
	}

	names := classify.DefaultDepthNames()
	names.Acquire["mtx_lock"] = true
	if got := TrackWith(f, p, names); got.Depth != 0 || got.Unbalanced || got.MaxDepth != 2 {
		t.Errorf("expected a balanced path once mtx_lock is a depth name, got %+v", got)
	}
}
