package wire

import (
	"fmt"

	"github.com/emberhttp/ember/errs"
	emburl "github.com/emberhttp/ember/url"
)

// Target holds the parsed request-target, preserving any percent-encoded
// path segments (most importantly "%2F") exactly as received: a decoded
// "%2F" must never collapse into a literal path-separating slash.
type Target struct {
	Path     string // decoded, for routing/logging only
	RawPath  string // as received, percent-encoding intact
	Query    string
	Fragment string
}

// ParseTarget splits an origin-form request-target into path, query and
// fragment, using this module's trimmed url package so that
// EscapedPath/RawPath semantics (and therefore %2F preservation) match
// net/url's reference behavior.
func ParseTarget(raw string) (Target, error) {
	u, err := emburl.ParseRequestURI(raw)
	if err != nil {
		return Target{}, errs.New(errs.InvalidPath, fmt.Errorf(
			"Invalid path in Request-URI: %w", err))
	}
	return Target{
		Path:     u.Path,
		RawPath:  u.EscapedPath(),
		Query:    u.RawQuery,
		Fragment: u.Fragment,
	}, nil
}
