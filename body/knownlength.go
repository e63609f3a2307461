package body

import (
	"io"

	"github.com/emberhttp/ember/iox"
)

// KnownLength decodes a Content-Length-framed body. Reads beyond
// remaining return io.EOF; the running total is checked against
// maxSize on every read.
type KnownLength struct {
	continuation
	r         *iox.Reader
	remaining int64
	delivered int64
	maxSize   int64 // 0 = unlimited
}

// NewKnownLength builds a KnownLength reader for a declared Content-Length
// of n bytes. maxSize <= 0 means unlimited.
func NewKnownLength(r *iox.Reader, w *iox.Writer, n int64, maxSize int64, expectContinue bool) *KnownLength {
	return &KnownLength{
		continuation: continuation{w: w, expectContinue: expectContinue},
		r:            r,
		remaining:    n,
		maxSize:      maxSize,
	}
}

func (k *KnownLength) Remaining() int64 { return k.remaining }

func (k *KnownLength) Read(p []byte) (int, error) {
	if err := k.maybeSendContinue(); err != nil {
		return 0, err
	}
	if k.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > k.remaining {
		p = p[:k.remaining]
	}

	n, err := k.r.Read(p)
	k.remaining -= int64(n)
	k.delivered += int64(n)

	if k.maxSize > 0 && k.delivered > k.maxSize {
		return n, MaxSizeErr()
	}
	return n, err
}
