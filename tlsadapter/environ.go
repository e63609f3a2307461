package tlsadapter

import (
	"crypto/tls"
	"encoding/pem"
	"fmt"
)

// protocolVersionName maps crypto/tls's numeric protocol version to the
// conventional SSL_PROTOCOL spelling (769->TLSv1, ..., 772->TLSv1.3).
func protocolVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLSv1"
	case tls.VersionTLS11:
		return "TLSv1.1"
	case tls.VersionTLS12:
		return "TLSv1.2"
	case tls.VersionTLS13:
		return "TLSv1.3"
	}
	return "Unknown"
}

// cipherBits returns an approximate effective key size for well-known
// cipher suites, for the SSL_CIPHER_USEKEYSIZE environment variable.
// crypto/tls does not expose this directly; values mirror the suites'
// published key sizes.
func cipherBits(suite uint16) int {
	switch suite {
	case tls.TLS_AES_128_GCM_SHA256, tls.TLS_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256, tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305, tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305:
		return 128
	case tls.TLS_AES_256_GCM_SHA384, tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:
		return 256
	}
	return 0
}

func pemEncode(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

// environ builds the string-keyed map merged into each request's
// environment.
func (a *builtinAdapter) environ(t *builtinTransport) map[string]string {
	env := make(map[string]string, 16)

	name, version, bits := t.CipherInfo()
	env["wsgi.url_scheme"] = "https"
	env["HTTPS"] = "on"
	env["SSL_PROTOCOL"] = version
	env["SSL_CIPHER"] = name
	env["SSL_CIPHER_USEKEYSIZE"] = fmt.Sprintf("%d", bits)
	env["SSL_VERSION_INTERFACE"] = "ember-tls/builtin"
	env["SSL_VERSION_LIBRARY"] = version

	if sni := t.ServerNameIndication(); sni != "" {
		env["SSL_TLS_SNI"] = sni
	}

	if len(t.state.PeerCertificates) > 0 {
		cert := t.state.PeerCertificates[0]
		env["SSL_CLIENT_S_DN"] = serializeDN(cert.Subject)
		env["SSL_CLIENT_SAN"] = serializeSAN(cert.DNSNames, cert.EmailAddresses)
		env["SSL_CLIENT_M_VERSION"] = fmt.Sprintf("%d", cert.Version)
		env["SSL_CLIENT_M_SERIAL"] = cert.SerialNumber.String()
		env["SSL_CLIENT_CERT"] = string(pemEncode(cert.Raw))
	}

	if a.certDN != "" {
		env["SSL_SERVER_S_DN"] = a.certDN
		env["SSL_SERVER_SAN"] = a.certSAN
		env["SSL_SERVER_M_VERSION"] = fmt.Sprintf("%d", a.certVersion)
		env["SSL_SERVER_M_SERIAL"] = a.certSerial
	}

	if len(t.state.TLSUnique) > 0 {
		env["SSL_SESSION_ID"] = fmt.Sprintf("%x", t.state.TLSUnique)
	}

	return env
}

func (a *builtinAdapter) loadServerCertInfo() {
	if a.config == nil || len(a.config.Certificates) == 0 {
		return
	}
	if leaf, err := x509ParseLeaf(a.config.Certificates[0]); err == nil {
		a.certDN = serializeDN(leaf.Subject)
		a.certSAN = serializeSAN(leaf.DNSNames, leaf.EmailAddresses)
		a.certSerial = leaf.SerialNumber.String()
		a.certVersion = leaf.Version
	}
}
