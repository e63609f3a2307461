package iox

import (
	"io"
	"sync"

	"github.com/emberhttp/ember/errs"
)

// Writer wraps a Transport with a pending-write buffer, a running byte
// counter and an idempotent Close. It runs over Go's blocking net.Conn
// with deadlines rather than non-blocking sockets; the runtime parks the
// goroutine instead of returning EWOULDBLOCK mid-write.
type Writer struct {
	mu           sync.Mutex
	w            Transport
	buf          []byte
	bytesWritten int64
	closed       bool
}

// NewWriter wraps t. There is no buffering beyond the single
// pending-write slice that Write drains before returning.
func NewWriter(t Transport) *Writer {
	return &Writer{w: t}
}

// Write appends p to the pending buffer and flushes it immediately: a
// retry loop that trims the pending buffer as bytes are accepted,
// stopping on a zero-byte write to avoid spinning, and swallowing
// acceptable shutdown errno.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}

	w.buf = append(w.buf, p...)
	n := len(p)

	for len(w.buf) > 0 {
		written, err := w.w.Write(w.buf)
		if written > 0 {
			w.bytesWritten += int64(written)
			w.buf = w.buf[written:]
		}
		if err != nil {
			if errs.IsAcceptableShutdownError(err) {
				w.buf = nil
				return n, nil
			}
			return n, err
		}
		if written == 0 {
			// A zero-byte write with no error would spin forever;
			// treat it as "nothing more can be written right now".
			break
		}
	}

	return n, nil
}

// Flush is a no-op placeholder for callers used to a buffered-writer API:
// Write already drains the pending buffer synchronously.
func (w *Writer) Flush() error {
	return nil
}

// BytesWritten returns the running count of bytes accepted by the
// underlying transport.
func (w *Writer) BytesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytesWritten
}

// Close is idempotent: only the first call does observable work, and
// acceptable-shutdown errno are swallowed rather than returned.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if c, ok := w.w.(io.Closer); ok {
		if err := c.Close(); err != nil && !errs.IsAcceptableShutdownError(err) {
			return err
		}
	}
	return nil
}
