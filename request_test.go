package ember

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emberhttp/ember/hdr"
)

// scriptConn is an in-memory net.Conn: reads come from a canned input,
// writes accumulate in a buffer the test inspects afterward.
type scriptConn struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newScriptConn(input string) *scriptConn {
	return &scriptConn{in: bytes.NewReader([]byte(input))}
}

func (c *scriptConn) Read(p []byte) (int, error)       { return c.in.Read(p) }
func (c *scriptConn) Write(p []byte) (int, error)      { return c.out.Write(p) }
func (c *scriptConn) Close() error                     { return nil }
func (c *scriptConn) LocalAddr() net.Addr              { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }
func (c *scriptConn) RemoteAddr() net.Addr             { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4242} }
func (c *scriptConn) SetDeadline(time.Time) error      { return nil }
func (c *scriptConn) SetReadDeadline(time.Time) error  { return nil }
func (c *scriptConn) SetWriteDeadline(time.Time) error { return nil }

func newTestRequest(t *testing.T, input string) (*Request, *scriptConn) {
	t.Helper()
	s := &Server{config: Config{
		ServerName: "ember-test",
		ErrorLog:   func(string, Level, error) {},
	}}
	sc := newScriptConn(input)
	c := newConnection(s, sc, nil, nil)
	req := newRequest(c)
	req.Method = "GET"
	req.ProtoMajor, req.ProtoMinor = 1, 1
	req.Header = make(hdr.Header)
	return req, sc
}

func TestWriteHeaderDefaultsToChunked(t *testing.T) {
	req, sc := newTestRequest(t, "")

	req.WriteHeader(200)

	out := sc.out.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("status line = %q", out)
	}
	if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
		t.Error("HTTP/1.1 response without Content-Length should be chunked")
	}
	if strings.Contains(out, "Connection: close") {
		t.Error("chunked HTTP/1.1 response should stay keep-alive")
	}
	if !req.sentHeaders {
		t.Error("sentHeaders should be true after WriteHeader")
	}
}

func TestWriteHeaderFlipsSentHeadersOnce(t *testing.T) {
	req, sc := newTestRequest(t, "")

	req.WriteHeader(200)
	req.WriteHeader(500)

	out := sc.out.String()
	if strings.Count(out, "HTTP/1.1") != 1 {
		t.Errorf("expected exactly one status line, got output %q", out)
	}
	if !strings.HasPrefix(out, "HTTP/1.1 200") {
		t.Error("second WriteHeader must not change the already-sent status")
	}
}

func TestWriteHeaderEmitsDateAndServer(t *testing.T) {
	req, sc := newTestRequest(t, "")

	req.WriteHeader(200)

	out := sc.out.String()
	if !strings.Contains(out, "Date: ") {
		t.Error("response should carry a Date header")
	}
	if !strings.Contains(out, "Server: ember-test\r\n") {
		t.Error("response should carry the configured Server header")
	}
}

func TestHTTP10KeepAliveEchoed(t *testing.T) {
	req, sc := newTestRequest(t, "")
	req.ProtoMinor = 0
	req.Header.Set(hdr.Connection, "Keep-Alive")
	req.ResponseHeader().Set(hdr.ContentLength, "5")

	req.WriteHeader(200)
	req.Write([]byte("hello"))

	out := sc.out.String()
	if !strings.Contains(out, "Connection: Keep-Alive\r\n") {
		t.Errorf("HTTP/1.0 keep-alive should be acknowledged, got %q", out)
	}
	if req.closeConn {
		t.Error("honored HTTP/1.0 keep-alive must not mark the connection for close")
	}
	if !req.keepAlive() {
		t.Error("keepAlive() should be true for an honored HTTP/1.0 keep-alive")
	}
}

func TestHTTP10WithoutLengthCloses(t *testing.T) {
	req, sc := newTestRequest(t, "")
	req.ProtoMinor = 0
	req.Header.Set(hdr.Connection, "Keep-Alive")

	req.WriteHeader(200)

	if !strings.Contains(sc.out.String(), "Connection: close\r\n") {
		t.Error("HTTP/1.0 response without a length indicator must announce close")
	}
	if !req.closeConn {
		t.Error("until-close framing must mark the connection for close")
	}
}

func TestConnectionCloseRequestHonored(t *testing.T) {
	req, sc := newTestRequest(t, "")
	req.Header.Set(hdr.Connection, "close")
	req.ResponseHeader().Set(hdr.ContentLength, "2")

	req.WriteHeader(200)
	req.Write([]byte("ok"))

	if !strings.Contains(sc.out.String(), "Connection: close\r\n") {
		t.Error("a Connection: close request must be answered with one")
	}
	if req.keepAlive() {
		t.Error("keepAlive() must be false when the peer asked for close")
	}
}

func TestNoBodyFor204(t *testing.T) {
	req, sc := newTestRequest(t, "")

	req.WriteHeader(204)
	n, err := req.Write([]byte("should vanish"))
	if err != nil || n != len("should vanish") {
		t.Fatalf("Write on a bodyless response = (%d, %v)", n, err)
	}

	out := sc.out.String()
	if strings.Contains(out, "should vanish") {
		t.Error("204 response must not carry a body")
	}
	if strings.Contains(out, "Transfer-Encoding") {
		t.Error("204 response must not be chunked")
	}
}

func TestWriteTruncatesContentLengthOverrun(t *testing.T) {
	req, sc := newTestRequest(t, "")
	req.ResponseHeader().Set(hdr.ContentLength, "4")

	req.WriteHeader(200)
	req.Write([]byte("123456"))

	out := sc.out.String()
	if !strings.HasSuffix(out, "\r\n\r\n1234") {
		t.Errorf("body should be truncated to the declared length, got %q", out)
	}
	if !req.closeConn {
		t.Error("an overrun response must not leave the connection reusable")
	}
}

func TestContentLengthUnderrunForcesClose(t *testing.T) {
	req, _ := newTestRequest(t, "")
	req.ResponseHeader().Set(hdr.ContentLength, "10")

	req.WriteHeader(200)
	req.Write([]byte("abc"))
	req.close()

	if !req.closeConn {
		t.Error("an under-delivered Content-Length must force the connection closed")
	}
	if req.keepAlive() {
		t.Error("keepAlive() must be false after an underrun")
	}
}

func TestImplicitHeaderOnFirstWrite(t *testing.T) {
	req, sc := newTestRequest(t, "")

	req.Write([]byte("hi"))

	out := sc.out.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("first Write should flush an implicit 200 header block, got %q", out)
	}
}
