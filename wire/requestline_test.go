package wire

import "testing"

type requestLineTest struct {
	name      string
	line      string
	proxy     bool
	wantErr   bool
	wantMeth  string
	wantTarg  string
	wantMajor int
	wantMinor int
}

var requestLineTests = []requestLineTest{
	{name: "simple GET", line: "GET /foo HTTP/1.1", wantMeth: "GET", wantTarg: "/foo", wantMajor: 1, wantMinor: 1},
	{name: "HTTP/1.0", line: "GET / HTTP/1.0", wantMeth: "GET", wantTarg: "/", wantMajor: 1, wantMinor: 0},
	{name: "OPTIONS asterisk", line: "OPTIONS * HTTP/1.1", wantMeth: "OPTIONS", wantTarg: "*", wantMajor: 1, wantMinor: 1},
	{name: "asterisk on GET rejected", line: "GET * HTTP/1.1", wantErr: true},
	{name: "missing parts", line: "GET /foo", wantErr: true},
	{name: "bad method token", line: "G=T /foo HTTP/1.1", wantErr: true},
	{name: "fragment rejected", line: "GET /foo#bar HTTP/1.1", wantErr: true},
	{name: "no leading slash", line: "GET foo HTTP/1.1", wantErr: true},
	{name: "unsupported major version", line: "GET / HTTP/2.0", wantErr: true},
	{name: "absolute-form rejected without proxy", line: "GET http://example.com/ HTTP/1.1", wantErr: true},
	{name: "absolute-form allowed with proxy", line: "GET http://example.com/ HTTP/1.1", proxy: true, wantMeth: "GET"},
	{name: "CONNECT rejected without proxy", line: "CONNECT example.com:443 HTTP/1.1", wantErr: true},
	{name: "CONNECT allowed with proxy", line: "CONNECT example.com:443 HTTP/1.1", proxy: true, wantMeth: "CONNECT"},
}

func TestParseRequestLine(t *testing.T) {
	for _, tt := range requestLineTests {
		t.Run(tt.name, func(t *testing.T) {
			rl, err := ParseRequestLine(tt.line, tt.proxy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRequestLine(%q) = nil error, want error", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequestLine(%q) unexpected error: %v", tt.line, err)
			}
			if rl.Method != tt.wantMeth {
				t.Errorf("Method = %q, want %q", rl.Method, tt.wantMeth)
			}
			if tt.wantTarg != "" && rl.Target != tt.wantTarg {
				t.Errorf("Target = %q, want %q", rl.Target, tt.wantTarg)
			}
			if tt.wantMajor != 0 && (rl.ProtoMajor != tt.wantMajor || rl.ProtoMinor != tt.wantMinor) {
				t.Errorf("Proto = %d.%d, want %d.%d", rl.ProtoMajor, rl.ProtoMinor, tt.wantMajor, tt.wantMinor)
			}
		})
	}
}

func TestParseRequestLinePercentEncodedSlashPreserved(t *testing.T) {
	rl, err := ParseRequestLine("GET /a%2Fb HTTP/1.1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rl.Target != "/a%2Fb" {
		t.Errorf("Target = %q, want /a%%2Fb (encoding preserved)", rl.Target)
	}
}
