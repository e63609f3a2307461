package tlsadapter

import (
	"crypto/tls"
)

// builtinTransport adapts *tls.Conn to the Transport contract
// (cipher/peer-cert/verify-mode/SNI introspection on top of the plain
// net.Conn surface).
type builtinTransport struct {
	*tls.Conn
	state tls.ConnectionState
}

func (t *builtinTransport) CipherInfo() (name string, protocolVersion string, bits int) {
	name = tls.CipherSuiteName(t.state.CipherSuite)
	protocolVersion = protocolVersionName(t.state.Version)
	bits = cipherBits(t.state.CipherSuite)
	return
}

func (t *builtinTransport) PeerCertificate(binary bool) []byte {
	if len(t.state.PeerCertificates) == 0 {
		return nil
	}
	cert := t.state.PeerCertificates[0]
	if binary {
		return cert.Raw
	}
	return pemEncode(cert.Raw)
}

func (t *builtinTransport) VerifyMode() tls.ClientAuthType {
	// Derived from this connection's handshake state, not from the
	// *tls.Config's ClientAuth: RequireAndVerifyClientCert when the peer
	// presented a certificate, NoClientCert otherwise.
	if t.state.HandshakeComplete && len(t.state.PeerCertificates) > 0 {
		return tls.RequireAndVerifyClientCert
	}
	return tls.NoClientCert
}

func (t *builtinTransport) ServerNameIndication() string {
	return t.state.ServerName
}
