/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package url parses an HTTP/1.1 origin-form request-target into its
// path, query and fragment components, preserving percent-encoding in the
// path exactly as received: a decoded "%2F" must never collapse into a
// literal path-separating slash.
//
// Scheme/host/userinfo parsing and opaque-URI reference resolution are
// deliberately absent: ParseRequestLine rejects absolute-form and
// authority-form targets before a request-target ever reaches
// ParseRequestURI, see wire/requestline.go.
package url

import (
	"fmt"
	"strings"
)

// URL holds the decoded and raw forms of one parsed request-target.
type URL struct {
	Path     string // decoded, for routing/logging
	RawPath  string // percent-encoding intact; empty when it equals the default encoding of Path
	RawQuery string
	Fragment string
}

// EscapedPath returns RawPath when it is a valid encoding of Path, falling
// back to the default percent-encoding of Path otherwise, mirroring
// net/url.URL.EscapedPath, so callers never need to read RawPath directly.
func (u *URL) EscapedPath() string {
	if u.RawPath != "" {
		if p, err := unescape(u.RawPath); err == nil && p == u.Path {
			return u.RawPath
		}
	}
	return escape(u.Path)
}

// ParseRequestURI parses an origin-form request-target ("/path?query")
// into its components. rawurl is assumed not to carry a "#fragment"
// suffix (ParseRequestLine already rejects a literal "#" in origin-form
// targets), but Fragment is still populated if one slips through.
func ParseRequestURI(rawurl string) (*URL, error) {
	rest, frag := cut(rawurl, "#")
	path, query := cut(rest, "?")

	decoded, err := unescape(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request-target %q: %w", rawurl, err)
	}

	u := &URL{Path: decoded, RawQuery: query, Fragment: frag}
	if escape(decoded) != path {
		u.RawPath = path
	}
	return u, nil
}

func cut(s, sep string) (before, after string) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):]
	}
	return s, ""
}
