/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package ember

import (
	"strconv"
	"time"

	"github.com/emberhttp/ember/body"
	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/hdr"
	"github.com/emberhttp/ember/wire"
)

// communicate runs one request/response exchange on c: read the request
// line under an idle-timeout deadline, parse headers and target, select
// a body reader, invoke the gateway, and decide whether the connection
// stays open for another exchange.
//
// The return value is the keep-alive decision: true means the caller
// should hand c back to the connection manager, false means close it.
func (c *Connection) communicate() (keepAlive bool) {
	if c.raw.SetReadDeadline(time.Now().Add(c.server.config.Timeout)) != nil {
		return false
	}

	line, err := c.r.ReadLine(8192)
	if err != nil {
		return c.handleRequestLineError(err)
	}
	if line == "" {
		// A lone leading CRLF before the request line is legal padding
		// some clients emit between pipelined requests; skip it.
		line, err = c.r.ReadLine(8192)
		if err != nil {
			return c.handleRequestLineError(err)
		}
	}

	_ = c.raw.SetReadDeadline(time.Time{})

	rl, err := wire.ParseRequestLine(line, false)
	if err != nil {
		errorResponse(c, err)
		return false
	}

	req := newRequest(c)
	req.Method = rl.Method
	req.Target = rl
	req.ProtoMajor = rl.ProtoMajor
	req.ProtoMinor = rl.ProtoMinor
	if c.server.config.Protocol == "HTTP/1.0" && req.ProtoMinor > 0 {
		// A server configured for HTTP/1.0 answers 1.1 peers at 1.0,
		// which also switches framing and keep-alive to 1.0 rules.
		req.ProtoMinor = 0
	}
	req.Env = c.environ()

	if !rl.IsAsterisk {
		t, terr := wire.ParseTarget(rl.Target)
		if terr != nil {
			errorResponse(c, terr)
			return false
		}
		req.Path = t.Path
		req.RawPath = t.RawPath
		req.Query = t.Query
	} else {
		req.Path = "*"
		req.RawPath = "*"
	}

	maxHdr := int(c.server.config.MaxRequestHeaderSize)
	h, err := wire.ReadHeaders(c.r, maxHdr)
	if err != nil {
		errorResponse(c, err)
		return false
	}
	req.Header = h
	req.state = stateParsingHeaders

	if req.Header.Get(hdr.Host) == "" && rl.ProtoMajor == 1 && rl.ProtoMinor == 1 {
		errorResponse(c, errs.New(errs.MalformedRequestLine, errMissingHost))
		return false
	}

	expectContinue := wire.HasToken(req.Header.Get(hdr.Expect), "100-continue")
	req.expectContinue = expectContinue

	reader, berr := c.bodyReader(req, expectContinue)
	if berr != nil {
		errorResponse(c, berr)
		return false
	}
	req.Body = reader
	req.state = stateReady

	served := c.invokeGateway(req)
	if !served {
		return false
	}

	if !req.sentHeaders {
		// The gateway returned without producing any output; flush an
		// implicit header block so the peer isn't left hanging.
		req.WriteHeader(req.status)
	}
	req.close()

	if !req.keepAlive() {
		return false
	}
	return c.server.manager.canAddKeepAliveConnection()
}

// invokeGateway runs the user's Gateway.Respond under panic recovery:
// a panic before headers are sent becomes a 500, a panic
// afterward just forces the connection closed since the status line is
// already on the wire.
func (c *Connection) invokeGateway(req *Request) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			req.state = stateError
			if req.sentHeaders {
				ok = false
				c.logError("gateway panicked after headers were sent", ErrorLevel, panicErr(r))
				return
			}
			wire.WriteSimpleResponse(c.writer(), 500, wire.InternalErrorBody)
			c.logError("gateway panicked", ErrorLevel, panicErr(r))
			ok = false
		}
	}()

	c.server.config.Gateway.Respond(req)
	return true
}

func panicErr(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errRecovered
}

type recoveredPanic string

func (e recoveredPanic) Error() string { return string(e) }

const errRecovered = recoveredPanic("recovered panic in gateway")

type requestLineErr string

func (e requestLineErr) Error() string { return string(e) }

const errMissingHost = requestLineErr("HTTP/1.1 request missing required Host header")

// bodyReader picks the body decoder: Transfer-Encoding:
// chunked takes priority over Content-Length, an absent or zero
// Content-Length yields an already-exhausted reader, and a malformed
// Content-Length is a protocol error.
func (c *Connection) bodyReader(req *Request, expectContinue bool) (body.Reader, error) {
	maxSize := c.server.config.MaxRequestBodySize

	if wire.HasToken(req.Header.Get(hdr.TransferEncoding), "chunked") {
		return body.NewChunked(c.r, c.w, maxSize, expectContinue), nil
	}

	cl := req.Header.Get(hdr.ContentLength)
	if cl == "" {
		return body.NewKnownLength(c.r, c.w, 0, maxSize, false), nil
	}

	n, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || n < 0 {
		return nil, errs.New(errs.BadContentLength, errBadContentLength)
	}
	if maxSize > 0 && n > maxSize {
		return nil, body.MaxSizeErr()
	}
	return body.NewKnownLength(c.r, c.w, n, maxSize, expectContinue), nil
}

type contentLengthErr string

func (e contentLengthErr) Error() string { return string(e) }

const errBadContentLength = contentLengthErr("Malformed Content-Length Header.")

// handleRequestLineError classifies the error from reading a request
// line: a clean peer-close ends the connection silently, an idle timeout
// gets a 408 only if the peer has sent bytes or completed a request
// (otherwise it too closes silently), and anything else gets a canned
// error response before closing.
func (c *Connection) handleRequestLineError(err error) bool {
	if errs.IsIgnorableSocketError(err) {
		return false
	}
	if isTimeoutError(err) {
		// A 408 is only useful to a peer that has shown signs of life:
		// bytes on the wire or a completed earlier request. A silent
		// keep-alive that simply went stale is closed without one.
		if c.r.BytesRead() > 0 || c.requestsSeen > 0 {
			errorResponse(c, errs.New(errs.RequestTimeout, err))
		}
		return false
	}
	errorResponse(c, errs.New(errs.MalformedRequestLine, err))
	return false
}

func isTimeoutError(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}
