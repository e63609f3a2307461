/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package hdr

import (
	"bytes"
	"testing"
)

type canonicalHeaderKeyTest struct {
	in, out string
}

var canonicalHeaderKeyTests = []canonicalHeaderKeyTest{
	{"a-b-c", "A-B-C"},
	{"a-1-c", "A-1-C"},
	{"User-Agent", "User-Agent"},
	{"uSER-aGENT", "User-Agent"},
	{"user-agent", "User-Agent"},
	{"USER-AGENT", "User-Agent"},
	{"foo-bar_baz", "Foo-Bar_baz"},
	{"a B", "a B"},
}

func TestCanonicalHeaderKey(t *testing.T) {
	for _, tt := range canonicalHeaderKeyTests {
		if s := CanonicalHeaderKey(tt.in); s != tt.out {
			t.Errorf("CanonicalHeaderKey(%q) = %q, want %q", tt.in, s, tt.out)
		}
	}
}

func TestHeaderAddGetSet(t *testing.T) {
	h := make(Header)
	h.Add("x-foo", "a")
	h.Add("X-Foo", "b")
	if got := h.Get("x-FOO"); got != "a" {
		t.Errorf("Get after two Adds = %q, want %q", got, "a")
	}
	h.Set("X-Foo", "only")
	if got := h.Get("x-foo"); got != "only" {
		t.Errorf("Get after Set = %q, want %q", got, "only")
	}
	if len(h["X-Foo"]) != 1 {
		t.Errorf("Set should replace, got %d values", len(h["X-Foo"]))
	}
}

func TestHeaderWriteSortsAndFoldsNewlines(t *testing.T) {
	h := make(Header)
	h.Set("Zebra", "z")
	h.Set("Apple", "line1\nline2")

	var buf bytes.Buffer
	if err := h.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "Apple: line1 line2\r\nZebra: z\r\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}
