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

// Package classify maps callee names to lock-related roles.
//
// Classification is a fixed sequence of rules where the first match wins. Exact names come from a
// Table, and name fragments are tested by a pluggable Matcher. Callers that need to know why a
// name was classified the way it was can use Explain, which also returns the rule that fired.
package classify

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

// Class is the role of a callee with respect to locking.
type Class uint8

const (
	// Unknown is any callee without a lock-related role
	Unknown Class = iota
	// Acquire callees add their first argument to the set of held locks
	Acquire
	// Release callees remove their first argument from the set of held locks
	Release
	// TryAcquire callees may or may not acquire their first argument
	TryAcquire
	// InputSource callees produce values from outside the program
	InputSource
)

func (c Class) String() string {
	switch c {
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case TryAcquire:
		return "try-acquire"
	case InputSource:
		return "input-source"
	default:
		return "unknown"
	}
}

// Rule identifies which classification rule fired for a name.
type Rule uint8

const (
	// NoRule is reported for Unknown names
	NoRule Rule = iota
	// ExactAcquire means the name is in the acquire table
	ExactAcquire
	// LockFragment means the name contains "lock" but none of the exclusions
	LockFragment
	// ExactRelease means the name is in the release table
	ExactRelease
	// ReleaseFragment means the name contains one of ReleaseFragments
	ReleaseFragment
	// ExactTryAcquire means the name is in the try-acquire table
	ExactTryAcquire
	// TryFragment means the name contains one of TryAcquireFragments
	TryFragment
	// ExactInput means the name is in the input source table
	ExactInput
	// InputFragment means the name contains one of InputSourceFragments
	InputFragment
)

var ruleNames = [...]string{
	NoRule:          "no rule",
	ExactAcquire:    "exact acquire name",
	LockFragment:    "contains \"lock\"",
	ExactRelease:    "exact release name",
	ReleaseFragment: "contains a release fragment",
	ExactTryAcquire: "exact try-acquire name",
	TryFragment:     "contains a try-lock fragment",
	ExactInput:      "exact input source name",
	InputFragment:   "contains an input fragment",
}

func (r Rule) String() string {
	if int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("rule(%d)", r)
}

// Name fragments tested by the Matcher, in rule order.
var (
	LockFragments        = []string{"lock"}
	LockExclusions       = []string{"unlock", "trylock"}
	ReleaseFragments     = []string{"unlock", "release"}
	TryAcquireFragments  = []string{"trylock", "try_lock"}
	InputSourceFragments = []string{"read", "recv", "get", "scan", "input", "fread", "getchar", "fgets"}
)

// Matcher tests whether a name contains any of a list of fragments.
type Matcher interface {
	MatchAny(name string, fragments []string) bool
}

// SubstringMatcher matches fragments as plain substrings of the name. With FoldCase set, the name is
// lowered before matching, which is needed for Go method names such as (*sync.Mutex).Unlock.
type SubstringMatcher struct {
	FoldCase bool
}

// MatchAny implements Matcher.
func (m SubstringMatcher) MatchAny(name string, fragments []string) bool {
	if m.FoldCase {
		name = strings.ToLower(name)
	}
	for _, frag := range fragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// Classifier classifies callee names. The zero value is not usable; use New or NewWithMatcher.
type Classifier struct {
	Table   Table
	Matcher Matcher
}

// New returns a classifier with the default table and a SubstringMatcher.
func New(foldCase bool) *Classifier {
	return NewWithMatcher(DefaultTable(), SubstringMatcher{FoldCase: foldCase})
}

// NewWithMatcher returns a classifier over table t using m for fragment rules.
func NewWithMatcher(t Table, m Matcher) *Classifier {
	return &Classifier{Table: t, Matcher: m}
}

// Classify returns the class of the callee name.
func (c *Classifier) Classify(name string) Class {
	class, _ := c.Explain(name)
	return class
}

// Explain returns the class of the callee name and the rule that produced it.
//
// The rules are applied in order. Note that a name such as release_lock is an Acquire: the "lock"
// fragment rule runs before the release rules.
func (c *Classifier) Explain(name string) (Class, Rule) {
	if name == "" {
		return Unknown, NoRule
	}
	t := &c.Table
	switch {
	case t.Acquire[name]:
		return Acquire, ExactAcquire
	case c.Matcher.MatchAny(name, LockFragments) && !c.Matcher.MatchAny(name, LockExclusions):
		return Acquire, LockFragment
	case t.Release[name]:
		return Release, ExactRelease
	case c.Matcher.MatchAny(name, ReleaseFragments):
		return Release, ReleaseFragment
	case t.TryAcquire[name]:
		return TryAcquire, ExactTryAcquire
	case c.Matcher.MatchAny(name, TryAcquireFragments):
		return TryAcquire, TryFragment
	case t.InputSource[name]:
		return InputSource, ExactInput
	case c.Matcher.MatchAny(name, InputSourceFragments):
		return InputSource, InputFragment
	}
	return Unknown, NoRule
}

// Canonical returns the value a lock argument refers to after removing casts and constant offsets.
func Canonical(f *ir.Function, v ir.ValueID) ir.ValueID {
	return ir.Canonicalize(f, v)
}
