// Package wire implements HTTP/1.1 message framing: request line and
// header parsing, response framing decisions, and the minimal canned
// error responses the server writes before a connection is abandoned.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emberhttp/ember/errs"
)

// RequestLine is the parsed "method SP target SP version" line.
type RequestLine struct {
	Method      string
	Target      string
	ProtoMajor  int
	ProtoMinor  int
	IsConnect   bool
	IsAsterisk  bool // OPTIONS * form
}

// ParseRequestLine parses a raw request-line and validates it: ASCII
// token method, supported HTTP major version,
// well-formed target per its scheme (origin-form, absolute-form,
// authority-form for CONNECT, asterisk-form for OPTIONS).
func ParseRequestLine(line string, allowProxyForms bool) (RequestLine, error) {
	var rl RequestLine

	if !isASCII(line) {
		return rl, errs.New(errs.MalformedRequestLine, errMalformedRequestURI(line))
	}

	s1 := strings.IndexByte(line, ' ')
	if s1 < 0 {
		return rl, errs.New(errs.MalformedRequestLine, errMalformedRequestLine(line))
	}
	rest := line[s1+1:]
	s2 := strings.IndexByte(rest, ' ')
	if s2 < 0 {
		return rl, errs.New(errs.MalformedRequestLine, errMalformedRequestLine(line))
	}

	rl.Method = line[:s1]
	rl.Target = rest[:s2]
	proto := rest[s2+1:]

	if !validMethod(rl.Method) {
		return rl, errs.New(errs.MalformedRequestLine, errMalformedRequestLine(line))
	}

	major, minor, ok := parseHTTPVersion(proto)
	if !ok {
		return rl, errs.New(errs.MalformedRequestLine, errBadProtocol(proto))
	}
	rl.ProtoMajor, rl.ProtoMinor = major, minor
	if major > 1 {
		return rl, errs.New(errs.UnsupportedVersion, errCannotFulfill(proto))
	}

	rl.IsConnect = rl.Method == "CONNECT"

	if err := validateTarget(&rl, allowProxyForms); err != nil {
		return rl, err
	}
	return rl, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// errMalformedRequestURI, errMalformedRequestLine, errBadProtocol and
// errCannotFulfill carry the wire-visible wording for each rejection;
// errs.Message surfaces them verbatim in the 400/505 response instead of
// a single fixed per-status string.
func errMalformedRequestURI(s string) error {
	return fmt.Errorf("Malformed Request-URI: request-line contains non-ASCII bytes %s", strconv.Quote(s))
}

func errMalformedRequestLine(s string) error {
	return fmt.Errorf("Malformed Request-Line: could not parse %s", strconv.Quote(s))
}

func errBadProtocol(proto string) error {
	return fmt.Errorf("Malformed Request-Line: bad protocol %s", strconv.Quote(proto))
}

func errCannotFulfill(proto string) error {
	return fmt.Errorf("Cannot fulfill request; unsupported HTTP version %s", strconv.Quote(proto))
}

// ErrMethodNotAllowed signals a CONNECT request arriving outside proxy
// mode, mapped by the response-framing layer to a 405.
var ErrMethodNotAllowed = fmt.Errorf("method not allowed on this server")

// validateTarget applies the per-form target rules: origin-form
// must start with "/", absolute-form and CONNECT's authority-form are
// rejected unless the server is running in proxy mode, "*" is legal only
// for OPTIONS, and a literal "#" fragment is always rejected.
func validateTarget(rl *RequestLine, allowProxyForms bool) error {
	if rl.IsConnect {
		if !allowProxyForms {
			return ErrMethodNotAllowed
		}
		if !looksLikeAuthority(rl.Target) {
			return errs.New(errs.InvalidPath, fmt.Errorf(
				"Invalid path in Request-URI: request-target must match authority-form."))
		}
		return nil
	}

	if rl.Target == "*" {
		if rl.Method != "OPTIONS" {
			return errs.New(errs.MalformedRequestLine, errMalformedRequestLine(rl.Target))
		}
		rl.IsAsterisk = true
		return nil
	}

	if hasScheme(rl.Target) {
		if !allowProxyForms {
			return errs.New(errs.InvalidPath, fmt.Errorf(
				"Absolute URI not allowed if server is not a proxy."))
		}
		return nil
	}

	if !strings.HasPrefix(rl.Target, "/") {
		return errs.New(errs.InvalidPath, fmt.Errorf(
			"Invalid path in Request-URI: request-target must contain origin-form "+
				"which starts with absolute-path (URI starting with a slash \"/\")."))
	}
	if strings.ContainsRune(rl.Target, '#') {
		return errs.New(errs.IllegalFragment, fmt.Errorf("Illegal #fragment in Request-URI."))
	}
	return nil
}

// hasScheme reports whether target begins with "scheme://", the marker
// of absolute-form. Authority-form (host:port, no "//") is
// handled separately via looksLikeAuthority.
func hasScheme(target string) bool {
	i := strings.IndexByte(target, ':')
	if i <= 0 || !strings.HasPrefix(target[i:], "://") {
		return false
	}
	for _, r := range target[:i] {
		if !isSchemeChar(r) {
			return false
		}
	}
	return true
}

func isSchemeChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '+' || r == '-' || r == '.':
		return true
	}
	return false
}

// looksLikeAuthority reports whether target is a bare "host:port" with no
// scheme, path, or query, the form CONNECT requires.
func looksLikeAuthority(target string) bool {
	if target == "" || strings.ContainsAny(target, "/?#") {
		return false
	}
	i := strings.LastIndexByte(target, ':')
	if i <= 0 || i == len(target)-1 {
		return false
	}
	port := target[i+1:]
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validMethod reports whether method is a syntactically valid HTTP token:
// one or more characters, none of them CTLs or separators.
func validMethod(method string) bool {
	if method == "" {
		return false
	}
	for _, r := range method {
		if !isTokenChar(r) {
			return false
		}
	}
	return true
}

func isTokenChar(r rune) bool {
	if r <= 0x20 || r >= 0x7f {
		return false
	}
	switch r {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"',
		'/', '[', ']', '?', '=', '{', '}':
		return false
	}
	return true
}

// parseHTTPVersion parses "HTTP/major.minor" strictly.
func parseHTTPVersion(vers string) (major, minor int, ok bool) {
	const big = 1000000
	switch vers {
	case "HTTP/1.1":
		return 1, 1, true
	case "HTTP/1.0":
		return 1, 0, true
	}
	if !strings.HasPrefix(vers, "HTTP/") {
		return 0, 0, false
	}
	dot := strings.IndexByte(vers, '.')
	if dot < 0 {
		return 0, 0, false
	}
	majorStr, minorStr := vers[len("HTTP/"):dot], vers[dot+1:]
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 || major > big {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(minorStr)
	if err != nil || minor < 0 || minor > big {
		return 0, 0, false
	}
	return major, minor, true
}
