package tlsadapter

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emberhttp/ember/errs"
)

// plainMethods is the set of HTTP method tokens the plaintext-on-TLS probe
// recognizes, each checked followed by a space.
var plainMethods = [][]byte{
	[]byte("GET "), []byte("POST "), []byte("PUT "), []byte("DELETE "),
	[]byte("HEAD "), []byte("OPTIONS "), []byte("PATCH "),
	[]byte("CONNECT "), []byte("TRACE "),
}

// builtinAdapter is the Kind=builtin implementation over crypto/tls.
type builtinAdapter struct {
	config      *tls.Config
	certDN      string // pre-parsed server certificate DN, for the environ map
	certSAN     string
	certSerial  string
	certVersion int
}

// NewBuiltin builds an Adapter from a ready *tls.Config. cfg must already
// carry the server's certificate(s); ClientAuth controls whether client
// certificates are requested/verified.
func NewBuiltin(cfg *tls.Config) Adapter {
	a := &builtinAdapter{config: cfg}
	a.loadServerCertInfo()
	return a
}

func (a *builtinAdapter) Kind() Kind { return KindBuiltin }

// peekedConn re-plays bytes already consumed during the plaintext probe
// ahead of further reads from the underlying net.Conn, so a probe that
// turns out inconclusive doesn't lose data the TLS handshake needs.
type peekedConn struct {
	net.Conn
	r io.Reader
}

func (p *peekedConn) Read(b []byte) (int, error) { return p.r.Read(b) }

func (a *builtinAdapter) Wrap(ctx context.Context, raw net.Conn) (Transport, map[string]string, error) {
	peeked, probeErr := probePlaintext(raw)
	if probeErr != nil {
		return nil, nil, probeErr
	}

	var under net.Conn = raw
	if len(peeked) > 0 {
		under = &peekedConn{Conn: raw, r: io.MultiReader(bytes.NewReader(peeked), raw)}
	}

	tlsConn := tls.Server(under, a.config)

	if err := handshake(ctx, tlsConn); err != nil {
		return nil, nil, err
	}

	t := &builtinTransport{Conn: tlsConn, state: tlsConn.ConnectionState()}
	env := a.environ(t)
	return t, env, nil
}

// probePlaintext performs the non-blocking peek of up to 16 bytes with a
// short timeout. If the peek times out or returns no data the probe is
// inconclusive and the handshake proceeds; otherwise the peeked bytes
// are returned so they can be replayed.
func probePlaintext(raw net.Conn) ([]byte, error) {
	_ = raw.SetReadDeadline(time.Now().Add(PeekTimeout))
	defer raw.SetReadDeadline(time.Time{})

	buf := make([]byte, 16)
	n, err := raw.Read(buf)
	if n == 0 {
		// Timeout or immediate EOF: inconclusive, proceed to handshake.
		return nil, nil
	}
	peeked := buf[:n]

	for _, m := range plainMethods {
		if bytes.HasPrefix(peeked, m) {
			return nil, errs.New(errs.NoTLS, fmt.Errorf("client sent plaintext HTTP on a TLS port"))
		}
	}

	if err != nil && !isTimeout(err) {
		// A real read error during the probe: let the handshake surface it.
		return peeked, nil
	}
	return peeked, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// handshake drives a bounded, blocking handshake and classifies the
// result: timeout/EOF/version-mismatch -> NoTLS;
// connection-reset -> silently acceptable; anything else -> FatalTLS.
func handshake(ctx context.Context, conn *tls.Conn) error {
	deadline := time.Now().Add(HandshakeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)
	defer conn.SetDeadline(time.Time{})

	err := conn.HandshakeContext(ctx)
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		return errs.New(errs.NoTLS, err)
	}
	if errors.Is(err, io.EOF) {
		return errs.New(errs.NoTLS, err)
	}
	if errs.IsIgnorableSocketError(err) {
		// Connection reset mid-handshake: acceptable, silent close.
		return errs.New(errs.FatalTLS, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "wrong version number"),
		strings.Contains(msg, "http request"),
		strings.Contains(msg, "unknown protocol"),
		strings.Contains(msg, "first record does not look like a TLS handshake"):
		return errs.New(errs.NoTLS, err)
	}

	return errs.New(errs.FatalTLS, err)
}

// Close swallows the acceptable TLS shutdown conditions, collecting any
// other error(s) into a single FatalTLS.
func Close(t Transport) error {
	err := t.Close()
	if err == nil {
		return nil
	}
	if acceptableTLSClose(err) || errs.IsAcceptableShutdownError(err) {
		return nil
	}
	return errs.New(errs.FatalTLS, err)
}

func acceptableTLSClose(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"shutdown while in init",
		"uninitialized",
		"use of closed network connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
