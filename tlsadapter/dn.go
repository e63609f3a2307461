package tlsadapter

import (
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"strings"
)

// x509ParseLeaf parses the leaf certificate of a tls.Certificate, caching
// nothing: called once at adapter construction and reused via the
// adapter's own cached fields.
func x509ParseLeaf(cert tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	return x509.ParseCertificate(cert.Certificate[0])
}

// ldapAttrOrder lists the LDAP-style attribute codes used for DN
// serialization (CN, C, ST, L, O, OU, Email, UID, T). Unknown attribute
// names keep their textual form.
var ldapAttrOrder = []string{"CN", "OU", "O", "L", "ST", "C", "Email", "UID", "T"}

// serializeDN renders a pkix.Name as "/k1=v1/k2=v2" in a fixed attribute
// order, the mod_ssl-style DN serialization.
func serializeDN(n pkix.Name) string {
	var b strings.Builder

	emit := func(code, value string) {
		if value == "" {
			return
		}
		b.WriteByte('/')
		b.WriteString(code)
		b.WriteByte('=')
		b.WriteString(value)
	}

	emit("CN", n.CommonName)
	for _, ou := range n.OrganizationalUnit {
		emit("OU", ou)
	}
	for _, o := range n.Organization {
		emit("O", o)
	}
	for _, l := range n.Locality {
		emit("L", l)
	}
	for _, st := range n.Province {
		emit("ST", st)
	}
	for _, c := range n.Country {
		emit("C", c)
	}

	for _, rdn := range n.Names {
		code := attrCode(rdn.Type.String())
		if emittedFromTypedField(code) {
			continue // already emitted above via the typed fields
		}
		if v, ok := rdn.Value.(string); ok {
			emit(code, v)
		}
	}

	return b.String()
}

// emittedFromTypedField reports whether serializeDN already wrote code
// from one of pkix.Name's typed fields.
func emittedFromTypedField(code string) bool {
	switch code {
	case "CN", "OU", "O", "L", "ST", "C":
		return true
	}
	return false
}

// attrCode maps an ASN.1 OID string to its LDAP short code where known;
// unrecognized OIDs pass through unchanged.
func attrCode(oid string) string {
	switch oid {
	case "2.5.4.3":
		return "CN"
	case "2.5.4.11":
		return "OU"
	case "2.5.4.10":
		return "O"
	case "2.5.4.7":
		return "L"
	case "2.5.4.8":
		return "ST"
	case "2.5.4.6":
		return "C"
	case "1.2.840.113549.1.9.1":
		return "Email"
	case "0.9.2342.19200300.100.1.1":
		return "UID"
	case "2.5.4.12":
		return "T"
	}
	return oid
}

// serializeSAN renders subject-alternative-name entries comma-joined,
// DNS names first then emails, the simplest unambiguous encoding that
// round-trips through the environment map.
func serializeSAN(dns, emails []string) string {
	all := make([]string, 0, len(dns)+len(emails))
	for _, d := range dns {
		all = append(all, "DNS:"+d)
	}
	for _, e := range emails {
		all = append(all, "email:"+e)
	}
	return strings.Join(all, ",")
}
