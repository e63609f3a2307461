/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package errs enumerates the failure kinds the server core can produce and
// wires them to github.com/nabbar/golib/errors so callers get stack traces
// and hierarchy for free instead of bare sentinel values.
package errs

import (
	"github.com/nabbar/golib/errors"
)

// minPkgEmberCore is well clear of nabbar-golib's own registered package
// ranges (see nabbar-golib/errors/modules.go, which reserves everything
// below MinAvailable); this module is a consumer, not a part of that
// library, so it claims its own block above the line.
const minPkgEmberCore errors.CodeError = errors.MinAvailable + 100

const (
	// MaxSizeExceeded: request body or a chunk exceeds configured limit.
	MaxSizeExceeded errors.CodeError = iota + minPkgEmberCore
	// NoTLS: a peer sent plaintext HTTP on a TLS port.
	NoTLS
	// FatalTLS: TLS handshake/record layer failed for any other reason.
	FatalTLS
	// MalformedRequestLine: request line could not be split into method/target/version.
	MalformedRequestLine
	// MalformedHeader: a header line is not "name: value".
	MalformedHeader
	// BadContentLength: Content-Length (or chunk size) is not a valid unsigned integer.
	BadContentLength
	// IllegalFragment: request-target carries a #fragment.
	IllegalFragment
	// InvalidPath: origin-form request-target does not start with "/".
	InvalidPath
	// UnsupportedVersion: HTTP major version > 1.
	UnsupportedVersion
	// RequestTimeout: no request line received within the idle timeout.
	RequestTimeout
	// PeerClosed: the peer closed the connection (clean EOF).
	PeerClosed
	// Transient: a socket error that should be retried or dropped quietly.
	Transient
	// Fatal: an unclassified, non-ignorable socket or protocol error.
	Fatal
)

var registered = false

func init() {
	if !errors.ExistInMapMessage(minPkgEmberCore) {
		errors.RegisterIdFctMessage(minPkgEmberCore, message)
		registered = true
	}
}

// Registered reports whether this package's messages were successfully
// registered with the shared liberr message table (false if another
// package already claimed the same code range).
func Registered() bool {
	return registered
}

func message(code errors.CodeError) string {
	switch code {
	case errors.UnknownError:
		return ""
	case MaxSizeExceeded:
		return "the entity sent with the request exceeds the maximum allowed bytes"
	case NoTLS:
		return "the client sent a plain HTTP request on a TLS-only port"
	case FatalTLS:
		return "TLS handshake or record layer failed"
	case MalformedRequestLine:
		return "malformed request line"
	case MalformedHeader:
		return "malformed header"
	case BadContentLength:
		return "malformed Content-Length header"
	case IllegalFragment:
		return "illegal #fragment in Request-URI"
	case InvalidPath:
		return "invalid path in Request-URI"
	case UnsupportedVersion:
		return "HTTP version not supported"
	case RequestTimeout:
		return "no request received within the idle timeout"
	case PeerClosed:
		return "peer closed the connection"
	case Transient:
		return "transient socket error"
	case Fatal:
		return "fatal, unclassified error"
	}

	return ""
}

// Err is the error type every fallible operation in this module returns:
// a plain alias for liberr's Error, exported here so callers never need
// to import github.com/nabbar/golib/errors directly.
type Err = errors.Error

// New is a small convenience wrapper equivalent to code.Error(parent),
// kept so call sites read "errs.New(errs.NoTLS, err)" instead of
// repeating the liberr factory-method spelling everywhere.
func New(code errors.CodeError, parent error) errors.Error {
	return code.Error(parent)
}

// Is reports whether err carries the given code anywhere in its parent
// chain (liberr.Error.HasCode). An err that is not itself a liberr Error
// never matches, even if it wraps one.
func Is(err error, code errors.CodeError) bool {
	if e, ok := err.(errors.Error); ok {
		return e.HasCode(code)
	}
	return false
}

// Message returns the human-readable text a call site attached to err via
// New's parent argument, e.g. the wire-visible canned body a parse error
// should produce. liberr.Error's own Error()/StringError()
// return the generic per-code message registered in this package, so the
// caller-supplied parent text, which carries the specific wording, has
// to be pulled out of the parent chain explicitly.
func Message(err error) string {
	e, ok := err.(errors.Error)
	if !ok {
		return err.Error()
	}
	if ss := e.StringErrorSlice(); len(ss) > 1 {
		return ss[1]
	}
	return e.StringError()
}
