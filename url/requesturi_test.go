/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package url

import "testing"

type parseRequestURITest struct {
	in          string
	path        string
	escapedPath string
	rawQuery    string
}

var parseRequestURITests = []parseRequestURITest{
	{"/", "/", "/", ""},
	{"/foo/bar", "/foo/bar", "/foo/bar", ""},
	{"/foo%2Fbar", "/foo/bar", "/foo%2Fbar", ""},
	{"/foo/bar?a=1&b=2", "/foo/bar", "/foo/bar", "a=1&b=2"},
	{"/a%2Fb/c?x=y", "/a/b/c", "/a%2Fb/c", "x=y"},
	{"/caf%C3%A9", "/café", "/caf%C3%A9", ""},
	{"/%20", "/ ", "/%20", ""},
}

func TestParseRequestURI(t *testing.T) {
	for _, tt := range parseRequestURITests {
		u, err := ParseRequestURI(tt.in)
		if err != nil {
			t.Errorf("ParseRequestURI(%q) error: %v", tt.in, err)
			continue
		}
		if u.Path != tt.path {
			t.Errorf("ParseRequestURI(%q).Path = %q, want %q", tt.in, u.Path, tt.path)
		}
		if got := u.EscapedPath(); got != tt.escapedPath {
			t.Errorf("ParseRequestURI(%q).EscapedPath() = %q, want %q", tt.in, got, tt.escapedPath)
		}
		if u.RawQuery != tt.rawQuery {
			t.Errorf("ParseRequestURI(%q).RawQuery = %q, want %q", tt.in, u.RawQuery, tt.rawQuery)
		}
	}
}

func TestParseRequestURIPreservesEncodedSlash(t *testing.T) {
	u, err := ParseRequestURI("/a%2Fb")
	if err != nil {
		t.Fatalf("ParseRequestURI: %v", err)
	}
	if u.Path == u.RawPath {
		t.Fatalf("expected RawPath to retain the %%2F escaping distinct from decoded Path, got both %q", u.Path)
	}
	if u.EscapedPath() != "/a%2Fb" {
		t.Errorf("EscapedPath() = %q, want the original %%2F preserved", u.EscapedPath())
	}
}

func TestParseRequestURIInvalidEscape(t *testing.T) {
	if _, err := ParseRequestURI("/%zz"); err == nil {
		t.Error("ParseRequestURI(\"/%zz\") should have failed on the malformed escape")
	}
}
