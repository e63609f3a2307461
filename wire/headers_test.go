package wire

import (
	"io"
	"strings"
	"testing"

	"github.com/emberhttp/ember/iox"
)

// fakeTransport adapts a plain io.Reader to iox.Transport for tests that
// never need to write anything back.
type fakeTransport struct{ io.Reader }

func (fakeTransport) Write(p []byte) (int, error) { return len(p), nil }

func newTestReader(s string) *iox.Reader {
	return iox.NewReader(fakeTransport{strings.NewReader(s)}, 0)
}

func TestReadHeadersBasic(t *testing.T) {
	raw := "Host: example.com\r\nAccept: text/plain\r\n\r\n"
	r := newTestReader(raw)
	h, err := ReadHeaders(r, 0)
	if err != nil {
		t.Fatalf("ReadHeaders: %v", err)
	}
	if got := h.Get("Host"); got != "example.com" {
		t.Errorf("Host = %q, want example.com", got)
	}
	if got := h.Get("Accept"); got != "text/plain" {
		t.Errorf("Accept = %q, want text/plain", got)
	}
}

func TestReadHeadersObsFold(t *testing.T) {
	raw := "X-Long: first\r\n second\r\n\r\n"
	r := newTestReader(raw)
	h, err := ReadHeaders(r, 0)
	if err != nil {
		t.Fatalf("ReadHeaders: %v", err)
	}
	if got := h.Get("X-Long"); got != "first second" {
		t.Errorf("X-Long = %q, want %q", got, "first second")
	}
}

func TestReadHeadersMissingColon(t *testing.T) {
	raw := "Malformed header line\r\n\r\n"
	r := newTestReader(raw)
	if _, err := ReadHeaders(r, 0); err == nil {
		t.Fatal("expected error for header line without colon")
	}
}

func TestReadHeadersOversize(t *testing.T) {
	raw := "Host: example.com\r\n\r\n"
	r := newTestReader(raw)
	if _, err := ReadHeaders(r, 5); err == nil {
		t.Fatal("expected error for header block exceeding maxBytes")
	}
}

func TestHasToken(t *testing.T) {
	if !HasToken("keep-alive, Upgrade", "upgrade") {
		t.Error("HasToken should be case-insensitive")
	}
	if HasToken("close", "keep-alive") {
		t.Error("HasToken matched an absent token")
	}
}
