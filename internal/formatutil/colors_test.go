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

package formatutil

import "testing"

func TestColorsCanBeDisabled(t *testing.T) {
	saved := IsColorEnabled
	defer func() { IsColorEnabled = saved }()

	IsColorEnabled = func() bool { return false }
	if s := Red("held"); s != "held" {
		t.Errorf("expected plain text, got %q", s)
	}
	if s := Percent(75, 50); s != "75.0%" {
		t.Errorf("expected plain percentage, got %q", s)
	}

	IsColorEnabled = func() bool { return true }
	if s := Status(false, "leak"); s != "\033[1;31mleak\033[0m" {
		t.Errorf("expected red text, got %q", s)
	}
	if s := Percent(10, 50); s != "10.0%" {
		t.Errorf("percentages under the threshold should not be colored, got %q", s)
	}
}

func TestSanitize(t *testing.T) {
	if s := Sanitize("a\033[1mb\n"); s != `a\x1b[1mb\n` {
		t.Errorf("unexpected sanitized string %q", s)
	}
}
