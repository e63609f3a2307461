// Package body implements the two request body decoders (known-length
// and chunked) as a small sum type, sharing the 100-Continue trigger and
// max-size enforcement.
package body

import (
	"fmt"
	"io"

	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/iox"
)

// Reader is the body decoder attached to a request: exactly one per
// request, never reused across requests. Both concrete readers satisfy it.
type Reader interface {
	io.Reader
	// Remaining reports bytes not yet delivered for KnownLength, or -1
	// for Chunked where the total length isn't known up front.
	Remaining() int64
}

// continuation is embedded in both concrete readers: it fires the
// 100-Continue informational response at the first body read, exactly
// once.
type continuation struct {
	w               *iox.Writer
	expectContinue  bool
	continueSent    bool
}

func (c *continuation) maybeSendContinue() error {
	if !c.expectContinue || c.continueSent {
		return nil
	}
	c.continueSent = true
	_, err := c.w.Write([]byte("HTTP/1.1 100 Continue\r\n\r\n"))
	return err
}

// MaxSizeErr builds the MaxSizeExceeded error with its client-facing
// message, shared by the lazy per-read enforcement in KnownLength/Chunked
// and the up-front Content-Length check in the server core.
func MaxSizeErr() error {
	return errs.New(errs.MaxSizeExceeded, fmt.Errorf(
		"The entity sent with the request exceeds the maximum allowed bytes."))
}
