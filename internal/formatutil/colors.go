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

// Package formatutil manipulates string colors and other formatting operations.
package formatutil

import (
	"fmt"

	"golang.org/x/term"
)

var (
	Bold   = Color("\033[1m%s\033[0m")
	Faint  = Color("\033[2m%s\033[0m")
	Red    = Color("\033[1;31m%s\033[0m")
	Green  = Color("\033[1;32m%s\033[0m")
	Yellow = Color("\033[1;33m%s\033[0m")
	Cyan   = Color("\033[1;36m%s\033[0m")
)

// IsColorEnabled returns true when colors should be printed. By default, colors are printed only when the standard
// output is a terminal.
var IsColorEnabled = func() bool { return term.IsTerminal(1) }

// Color returns a function formatting its arguments with colorString when colors are enabled.
func Color(colorString string) func(...any) string {
	return func(args ...any) string {
		if IsColorEnabled() {
			return fmt.Sprintf(colorString, fmt.Sprint(args...))
		}
		return fmt.Sprint(args...)
	}
}

// Status prints s in green when ok is true, in red otherwise.
func Status(ok bool, s string) string {
	if ok {
		return Green(s)
	}
	return Red(s)
}

// Percent prints p as a percentage, highlighted when it exceeds warnAbove.
func Percent(p float64, warnAbove float64) string {
	s := fmt.Sprintf("%.1f%%", p)
	if p > warnAbove {
		return Yellow(s)
	}
	return s
}

// Sanitize is a simple sanitizer that removes all escape sequences
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	if len(r) >= 2 {
		return r[1 : len(r)-1]
	}
	return r
}
