/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package ember

import (
	"fmt"
	"time"

	"github.com/emberhttp/ember/body"
	"github.com/emberhttp/ember/hdr"
	"github.com/emberhttp/ember/wire"
)

// requestState is the Request lifecycle:
// New -> ParsingHeaders -> Ready -> Responding -> Done | Error.
type requestState int

const (
	stateNew requestState = iota
	stateParsingHeaders
	stateReady
	stateResponding
	stateDone
	stateError
)

// Request is the per-exchange data model the gateway is handed. Exactly
// one Request is alive per in-flight HTTP exchange; it is never reused
// across requests on a keep-alive connection.
type Request struct {
	conn *Connection

	state requestState

	Method  string
	Target  wire.RequestLine
	Path    string
	RawPath string
	Query   string

	ProtoMajor int
	ProtoMinor int

	Header hdr.Header
	Body   body.Reader

	// Env carries per-connection metadata for the gateway: TLS-derived
	// SSL_* variables and, on Unix sockets with peer credentials
	// enabled, the peer's pid/uid/gid and resolved names. Nil on a
	// plain TCP connection with peer creds off.
	Env map[string]string

	status         int
	respHeader     hdr.Header
	sentHeaders    bool
	framing        wire.BodyFraming
	chunkedWrite   bool
	closeConn      bool
	expectContinue bool

	written int64 // body bytes actually put on the wire, for the Content-Length overrun/underrun contract

	startedAt time.Time
}

func newRequest(c *Connection) *Request {
	return &Request{
		conn:       c,
		state:      stateNew,
		respHeader: make(hdr.Header),
		status:     200,
		startedAt:  time.Now(),
	}
}

// WriteHeader sets the response status and flushes the header block. It
// is invalid to call more than once; the sentHeaders flag enforces that.
func (r *Request) WriteHeader(status int) {
	if r.sentHeaders {
		r.conn.logError("response headers written twice", ErrorLevel,
			fmt.Errorf("WriteHeader(%d) called after headers already sent", status))
		return
	}
	r.status = status
	r.state = stateResponding

	framing := wire.FrameResponse(r.ProtoMajor, r.ProtoMinor, r.Method, status, r.declaredLength())
	r.framing = framing
	r.chunkedWrite = framing == wire.FrameChunked
	if r.chunkedWrite {
		r.respHeader.Set(hdr.TransferEncoding, "chunked")
	}

	switch {
	case wire.ShouldClose(r.ProtoMajor, r.ProtoMinor, r.Header),
		wire.HasToken(r.respHeader.Get(hdr.Connection), "close"),
		framing == wire.FrameUntilClose:
		// The peer asked for close, the gateway did, or the body has no
		// length indicator so only a close can delimit it.
		r.closeConn = true
		r.respHeader.Set(hdr.Connection, "close")
	case r.ProtoMajor == 1 && r.ProtoMinor == 0:
		// An HTTP/1.0 peer that negotiated keep-alive needs the
		// acknowledgement echoed back or it will close anyway.
		r.respHeader.Set(hdr.Connection, "Keep-Alive")
	}

	if r.respHeader.Get(hdr.Date) == "" {
		r.respHeader.Set(hdr.Date, time.Now().UTC().Format(hdr.TimeFormat))
	}
	if r.respHeader.Get(hdr.ServerHeader) == "" {
		r.respHeader.Set(hdr.ServerHeader, r.conn.server.serverName())
	}

	r.conn.writeStatusLine(status, r.ProtoMajor, r.ProtoMinor)
	r.respHeader.Write(r.conn.writer())
	r.conn.writer().Write([]byte("\r\n"))
	r.sentHeaders = true
}

// Write sends body bytes, sending a default 200 header block first if the
// gateway never called WriteHeader explicitly, the same implicit-header
// behavior net/http gives handlers. It enforces the Content-Length
// contract: a write that would overrun a declared
// Content-Length is rejected with a 500 if headers are still unsent, or
// truncated and logged if headers already went out; either way the
// connection is forced closed rather than reused.
func (r *Request) Write(p []byte) (int, error) {
	if !r.sentHeaders {
		if n := r.declaredLength(); n >= 0 && int64(len(p)) > n-r.written {
			r.state = stateError
			r.closeConn = true
			r.conn.logError("gateway wrote more bytes than declared Content-Length before sending headers",
				ErrorLevel, errContentLengthOverrun)
			wire.WriteSimpleResponse(r.conn.writer(), 500, wire.InternalErrorBody)
			r.sentHeaders = true
			return 0, errContentLengthOverrun
		}
		r.WriteHeader(200)
	}

	if r.framing == wire.FrameNone {
		// 1xx/204/304 responses and HEAD replies carry no body; the
		// headers are already on the wire, so swallow the bytes.
		return len(p), nil
	}

	if r.chunkedWrite {
		n, err := wire.WriteChunk(r.conn.writer(), p)
		r.written += int64(n)
		return n, err
	}

	if n := r.declaredLength(); n >= 0 {
		remaining := n - r.written
		if remaining <= 0 {
			r.closeConn = true
			r.conn.logError("gateway wrote more bytes than declared Content-Length",
				ErrorLevel, errContentLengthOverrun)
			return 0, errContentLengthOverrun
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
			r.closeConn = true
			r.conn.logError("gateway wrote more bytes than declared Content-Length, truncating",
				ErrorLevel, errContentLengthOverrun)
		}
	}

	n, err := r.conn.writer().Write(p)
	r.written += int64(n)
	return n, err
}

type contentLengthOverrunErr string

func (e contentLengthOverrunErr) Error() string { return string(e) }

const errContentLengthOverrun = contentLengthOverrunErr("response body exceeds the declared Content-Length")

// ResponseHeader returns the response header map, mutable until WriteHeader is
// called.
func (r *Request) ResponseHeader() hdr.Header {
	return r.respHeader
}

func (r *Request) declaredLength() int64 {
	cl := r.respHeader.Get(hdr.ContentLength)
	if cl == "" {
		return -1
	}
	var n int64
	if _, err := fmt.Sscan(cl, &n); err != nil {
		return -1
	}
	return n
}

// close finalizes the response: if chunked, writes the terminating
// zero-length chunk. A declared Content-Length left under-delivered forces
// the connection closed rather than reused; it is never
// safe to let the peer believe more bytes are coming. Always transitions
// the request to Done.
func (r *Request) close() {
	if r.chunkedWrite {
		wire.WriteLastChunk(r.conn.writer())
	} else if n := r.declaredLength(); n >= 0 && r.written < n {
		r.closeConn = true
		r.conn.logError("response body shorter than declared Content-Length", ErrorLevel, errContentLengthUnderrun)
	}
	r.state = stateDone
}

type contentLengthUnderrunErr string

func (e contentLengthUnderrunErr) Error() string { return string(e) }

const errContentLengthUnderrun = contentLengthUnderrunErr("response body shorter than declared Content-Length")

// keepAlive reports whether this exchange leaves the connection
// eligible for reuse.
func (r *Request) keepAlive() bool {
	if r.state == stateError || r.closeConn {
		return false
	}
	if r.ProtoMajor == 1 && r.ProtoMinor == 1 {
		return !wire.HasToken(r.Header.Get(hdr.Connection), "close")
	}
	return wire.HasToken(r.Header.Get(hdr.Connection), "keep-alive")
}

// errorResponse writes a minimal canned error response and marks
// the connection for closure. Used for parser-level failures that occur
// before a Request reaches Ready. Goes through the buffered writer so a
// TLS connection gets its error inside the session, not as plaintext on
// the raw socket.
func errorResponse(c *Connection, err error) {
	status, msg := wire.StatusForError(err)
	_ = wire.WriteSimpleResponse(c.writer(), status, msg)
}
