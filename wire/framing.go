package wire

import (
	"strconv"

	"github.com/emberhttp/ember/hdr"
)

// BodyFraming describes how a response body's length is signaled to the
// peer, decided by FrameResponse.
type BodyFraming int

const (
	// FrameContentLength sends a Content-Length header and the exact
	// number of bytes.
	FrameContentLength BodyFraming = iota
	// FrameChunked sends Transfer-Encoding: chunked.
	FrameChunked
	// FrameUntilClose sends no length header; the body ends when the
	// connection closes (HTTP/1.0 peers with no declared length).
	FrameUntilClose
	// FrameNone means the status forbids a body (1xx, 204, 304) or the
	// request method forbids one (HEAD).
	FrameNone
)

// BodyAllowed reports whether a response with the given status may carry
// an entity body.
func BodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == 204, status == 304:
		return false
	}
	return true
}

// FrameResponse decides how to frame a response body: contentLength < 0
// means the length isn't known ahead of time (so chunked is preferred for
// HTTP/1.1 peers, until-close for HTTP/1.0 ones).
func FrameResponse(protoMajor, protoMinor int, method string, status int, contentLength int64) BodyFraming {
	if !BodyAllowed(status) || method == "HEAD" {
		return FrameNone
	}
	if contentLength >= 0 {
		return FrameContentLength
	}
	if protoMajor == 1 && protoMinor >= 1 {
		return FrameChunked
	}
	return FrameUntilClose
}

// ShouldClose decides whether the connection must close after this
// message: HTTP/1.0 peers close unless they sent
// "Connection: keep-alive"; HTTP/1.1 peers stay open unless they (or the
// server) sent "Connection: close".
func ShouldClose(major, minor int, h hdr.Header) bool {
	if major < 1 {
		return true
	}
	conn := h.Get(hdr.Connection)
	hasClose := HasToken(conn, "close")
	if major == 1 && minor == 0 {
		return hasClose || !HasToken(conn, "keep-alive")
	}
	return hasClose
}

// WriteContentLength sets the Content-Length header to n.
func WriteContentLength(h hdr.Header, n int64) {
	h.Set(hdr.ContentLength, strconv.FormatInt(n, 10))
}
