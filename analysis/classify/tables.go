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

package classify

// Table holds the exact callee names for each class.
type Table struct {
	Acquire     map[string]bool
	Release     map[string]bool
	TryAcquire  map[string]bool
	InputSource map[string]bool
}

var (
	defaultAcquire = []string{
		"mutex_lock", "spin_lock", "pthread_mutex_lock", "mtx_lock", "_lock_acquire", "acquire_lock",
		"(*sync.Mutex).Lock", "(*sync.RWMutex).Lock", "(*sync.RWMutex).RLock",
	}
	defaultRelease = []string{
		"mutex_unlock", "spin_unlock", "pthread_mutex_unlock", "mtx_unlock", "_lock_release", "release_lock",
		"(*sync.Mutex).Unlock", "(*sync.RWMutex).Unlock", "(*sync.RWMutex).RUnlock",
	}
	defaultTryAcquire = []string{
		"pthread_mutex_trylock", "mutex_trylock", "spin_trylock",
		"(*sync.Mutex).TryLock", "(*sync.RWMutex).TryLock",
	}
	defaultInputSource = []string{"read", "recv", "get", "scan", "input", "fread", "getchar", "fgets"}
)

// DefaultTable returns a fresh copy of the built-in tables.
func DefaultTable() Table {
	return Table{
		Acquire:     toSet(defaultAcquire),
		Release:     toSet(defaultRelease),
		TryAcquire:  toSet(defaultTryAcquire),
		InputSource: toSet(defaultInputSource),
	}
}

// Add adds names to the exact table of class c. Adding to Unknown is a no-op.
func (t *Table) Add(c Class, names ...string) {
	var set *map[string]bool
	switch c {
	case Acquire:
		set = &t.Acquire
	case Release:
		set = &t.Release
	case TryAcquire:
		set = &t.TryAcquire
	case InputSource:
		set = &t.InputSource
	default:
		return
	}
	if *set == nil {
		*set = map[string]bool{}
	}
	for _, name := range names {
		(*set)[name] = true
	}
}

// DepthNames are the exact names used by the critical-depth tracker. Unlike the Classifier, no
// fragment matching is done on these.
type DepthNames struct {
	Acquire map[string]bool
	Release map[string]bool
}

// DefaultDepthNames returns a fresh copy of the built-in depth lists.
func DefaultDepthNames() DepthNames {
	return DepthNames{
		Acquire: toSet([]string{
			"mutex_lock", "spin_lock", "pthread_mutex_lock", "acquire_lock",
			"(*sync.Mutex).Lock", "(*sync.RWMutex).Lock", "(*sync.RWMutex).RLock",
		}),
		Release: toSet([]string{
			"mutex_unlock", "spin_unlock", "pthread_mutex_unlock", "release_lock",
			"(*sync.Mutex).Unlock", "(*sync.RWMutex).Unlock", "(*sync.RWMutex).RUnlock",
		}),
	}
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}
