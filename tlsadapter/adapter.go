// Package tlsadapter provides a uniform TLS adapter interface with a
// builtin crypto/tls backend, the plaintext-on-TLS probe, the handshake
// state machine and SSL environment-variable generation.
//
// Only the standard-library backend ships today; the Kind enum below is
// the extension point a second backend (an OpenSSL binding, say) would
// register against.
package tlsadapter

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// Kind names a TLS adapter backend. Only KindBuiltin ships today.
type Kind string

const (
	KindBuiltin Kind = "builtin"
)

// PeekTimeout bounds the plaintext-on-TLS probe.
const PeekTimeout = 500 * time.Millisecond

// HandshakeTimeout bounds the handshake wait on a fresh connection.
const HandshakeTimeout = 5 * time.Second

// Transport is what a wrapped TLS socket exposes to the rest of the
// server: the plain read/write surface plus TLS introspection.
type Transport interface {
	net.Conn
	CipherInfo() (name string, protocolVersion string, bits int)
	PeerCertificate(binary bool) []byte
	VerifyMode() tls.ClientAuthType
	ServerNameIndication() string
}

// Adapter wraps raw accepted sockets into TLS transports and derives the
// environment map merged into each request's environment.
type Adapter interface {
	Kind() Kind
	// Wrap performs the plaintext probe then the handshake. On success it
	// returns a ready Transport and the derived SSL environment. Errors
	// are errs.NoTLS or errs.FatalTLS.
	Wrap(ctx context.Context, raw net.Conn) (Transport, map[string]string, error)
}
