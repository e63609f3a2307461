package body

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/iox"
)

// maxChunkLineLen bounds a single "HEX(;ext)?CRLF" chunk-size line, large
// enough for any plausible extension while still catching a runaway peer.
const maxChunkLineLen = 4096

// Chunked decodes an HTTP/1.1 chunked-transfer body: a sequence of
// "size CRLF data CRLF" chunks terminated by a zero-size chunk, followed
// by optional trailer headers (read and discarded) and a bare CRLF.
type Chunked struct {
	continuation
	r           *iox.Reader
	remaining   int64 // bytes left in the current chunk
	total       int64 // running total delivered, checked against maxSize
	maxSize     int64 // 0 = unlimited
	eof         bool
	trailerRead bool
}

// NewChunked builds a Chunked reader.
func NewChunked(r *iox.Reader, w *iox.Writer, maxSize int64, expectContinue bool) *Chunked {
	return &Chunked{
		continuation: continuation{w: w, expectContinue: expectContinue},
		r:            r,
		maxSize:      maxSize,
	}
}

// Remaining is always -1: the total chunked body length isn't known
// ahead of the terminating zero-size chunk.
func (c *Chunked) Remaining() int64 { return -1 }

func (c *Chunked) Read(p []byte) (int, error) {
	if err := c.maybeSendContinue(); err != nil {
		return 0, err
	}
	if c.eof {
		if !c.trailerRead {
			if err := c.readTrailers(); err != nil {
				return 0, err
			}
		}
		return 0, io.EOF
	}

	if c.remaining == 0 {
		size, err := c.readChunkSize()
		if err != nil {
			return 0, err
		}
		if size == 0 {
			c.eof = true
			if err := c.readTrailers(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		c.remaining = size
	}

	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}

	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	c.total += int64(n)

	if c.maxSize > 0 && c.total > c.maxSize {
		return n, MaxSizeErr()
	}
	if err != nil {
		return n, err
	}

	if c.remaining == 0 {
		if crlfErr := c.consumeChunkCRLF(); crlfErr != nil {
			return n, crlfErr
		}
	}
	return n, nil
}

// readChunkSize reads a "HEX(;ext)?CRLF" line and hex-decodes the size.
func (c *Chunked) readChunkSize() (int64, error) {
	line, err := c.r.ReadLine(maxChunkLineLen)
	if err != nil {
		return 0, errs.New(errs.MalformedHeader, err)
	}
	hexPart := line
	if i := strings.IndexByte(line, ';'); i >= 0 {
		hexPart = line[:i]
	}
	hexPart = strings.TrimSpace(hexPart)
	size, err := strconv.ParseInt(hexPart, 16, 64)
	if err != nil || size < 0 {
		return 0, errs.New(errs.BadContentLength, fmt.Errorf("malformed chunk size %q", line))
	}
	return size, nil
}

// consumeChunkCRLF reads the mandatory CRLF that follows chunk data.
func (c *Chunked) consumeChunkCRLF() error {
	line, err := c.r.ReadLine(2)
	if err != nil {
		return errs.New(errs.MalformedHeader, err)
	}
	if line != "" {
		return errs.New(errs.MalformedHeader, fmt.Errorf("missing CRLF after chunk data"))
	}
	return nil
}

// readTrailers reads and discards trailer headers until a bare CRLF.
func (c *Chunked) readTrailers() error {
	c.trailerRead = true
	for {
		line, err := c.r.ReadLine(maxChunkLineLen)
		if err != nil {
			return errs.New(errs.MalformedHeader, err)
		}
		if line == "" {
			return nil
		}
	}
}
