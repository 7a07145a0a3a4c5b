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

package lockset

import (
	"strings"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"golang.org/x/exp/slices"
)

// LockSet is a set of canonical lock values, kept sorted. Operations never modify their receiver.
type LockSet []ir.ValueID

// Has returns true if v is in the set.
func (s LockSet) Has(v ir.ValueID) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

// Add returns the set with v added.
func (s LockSet) Add(v ir.ValueID) LockSet {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s.Clone(), i, v)
}

// Remove returns the set without v.
func (s LockSet) Remove(v ir.ValueID) LockSet {
	i, found := slices.BinarySearch(s, v)
	if !found {
		return s
	}
	return slices.Delete(s.Clone(), i, i+1)
}

// Union returns the union of the two sets.
func (s LockSet) Union(t LockSet) LockSet {
	if len(t) == 0 {
		return s
	}
	if len(s) == 0 {
		return t
	}
	res := make(LockSet, 0, len(s)+len(t))
	i, j := 0, 0
	for i < len(s) && j < len(t) {
		switch {
		case s[i] < t[j]:
			res = append(res, s[i])
			i++
		case s[i] > t[j]:
			res = append(res, t[j])
			j++
		default:
			res = append(res, s[i])
			i++
			j++
		}
	}
	res = append(res, s[i:]...)
	return append(res, t[j:]...)
}

// Equal returns true when the two sets have the same elements.
func (s LockSet) Equal(t LockSet) bool {
	return slices.Equal(s, t)
}

// Clone returns a copy of the set.
func (s LockSet) Clone() LockSet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Slice returns the elements in increasing order.
func (s LockSet) Slice() []ir.ValueID {
	return s.Clone()
}

// Names returns the names of the locks in the set, using f to name values.
func (s LockSet) Names(f *ir.Function) []string {
	names := make([]string, len(s))
	for i, v := range s {
		names[i] = f.ValueName(v)
	}
	return names
}

// Format prints the set with the value names of f.
func (s LockSet) Format(f *ir.Function) string {
	return "{" + strings.Join(s.Names(f), ", ") + "}"
}

// NewLockSet returns the set of the values provided.
func NewLockSet(values ...ir.ValueID) LockSet {
	var s LockSet
	for _, v := range values {
		s = s.Add(v)
	}
	return s
}
