package body

import (
	"io"
	"strings"
	"testing"

	"github.com/emberhttp/ember/iox"
)

type fakeTransport struct{ io.Reader }

func (fakeTransport) Write(p []byte) (int, error) { return len(p), nil }

func newTestIO(s string) (*iox.Reader, *iox.Writer) {
	r := iox.NewReader(fakeTransport{strings.NewReader(s)}, 0)
	w := iox.NewWriter(fakeTransport{strings.NewReader("")})
	return r, w
}

func TestKnownLengthReadsExactly(t *testing.T) {
	r, w := newTestIO("hello world, trailing garbage")
	k := NewKnownLength(r, w, 11, 0, false)

	got, err := io.ReadAll(k)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("body = %q, want %q", got, "hello world")
	}
	if k.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", k.Remaining())
	}
}

func TestKnownLengthMaxSizeExceeded(t *testing.T) {
	r, w := newTestIO("0123456789")
	k := NewKnownLength(r, w, 10, 5, false)

	_, err := io.ReadAll(k)
	if err == nil {
		t.Fatal("expected MaxSizeExceeded error")
	}
}

func TestKnownLengthSendsContinueOnce(t *testing.T) {
	r, _ := newTestIO("abc")
	var sent int
	wr := &countingWriter{}
	k := NewKnownLength(r, iox.NewWriter(wr), 3, 0, true)

	buf := make([]byte, 1)
	k.Read(buf)
	k.Read(buf)
	sent = wr.writes
	if sent != 1 {
		t.Errorf("100-Continue written %d times, want 1", sent)
	}
}

type countingWriter struct {
	io.Reader
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return len(p), nil
}
