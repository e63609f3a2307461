package wire

import (
	"strings"

	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/hdr"
	"github.com/emberhttp/ember/iox"
)

// maxHeaderLineLen bounds one "Name: value" line; ReadHeaders' maxBytes
// argument bounds the header block as a whole.
const maxHeaderLineLen = 8192

// ReadHeaders reads header fields from r until a bare CRLF, folding
// obs-fold continuation lines and canonicalizing names via hdr.Header,
// stopping once the running total exceeds maxBytes.
func ReadHeaders(r *iox.Reader, maxBytes int) (hdr.Header, error) {
	h := make(hdr.Header)
	total := 0

	var lastKey string
	for {
		line, err := r.ReadLine(maxHeaderLineLen)
		if err != nil {
			return nil, errs.New(errs.MalformedHeader, err)
		}
		total += len(line) + 2
		if maxBytes > 0 && total > maxBytes {
			return nil, errs.New(errs.MalformedHeader, errOversizeHeaders)
		}
		if line == "" {
			return h, nil
		}

		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			// obs-fold continuation: append to the previous value.
			vs := h[lastKey]
			if len(vs) > 0 {
				vs[len(vs)-1] = vs[len(vs)-1] + " " + hdr.TrimString(line)
			}
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, errs.New(errs.MalformedHeader, errNoColon)
		}
		name := line[:colon]
		if !hdr.ValidHeaderFieldName(name) {
			return nil, errs.New(errs.MalformedHeader, errBadHeaderName)
		}
		value := hdr.TrimString(line[colon+1:])
		h.Add(name, value)
		lastKey = hdr.CanonicalHeaderKey(name)
	}
}

var (
	errOversizeHeaders = headerErr("header block exceeds the configured maximum")
	errNoColon         = headerErr("header line missing ':'")
	errBadHeaderName   = headerErr("invalid header field name")
)

type headerErr string

func (e headerErr) Error() string { return string(e) }

// CommaSeparated splits a comma-separated header value (e.g. Connection,
// TE, Transfer-Encoding) into trimmed, non-empty tokens.
func CommaSeparated(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = hdr.TrimString(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasToken reports whether value (a comma-separated header field) contains
// token, compared case-insensitively.
func HasToken(value, token string) bool {
	for _, p := range CommaSeparated(value) {
		if strings.EqualFold(p, token) {
			return true
		}
	}
	return false
}
