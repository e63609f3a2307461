package ember

import (
	"net"
	"testing"
	"time"
)

// newTestManager builds a Server with a real loopback listener and a
// connection manager over it, plus a dialer for producing live
// accepted-socket pairs.
func newTestManager(t *testing.T) (*Server, *connectionManager) {
	t.Helper()

	cfg := Config{
		BindAddr:   "127.0.0.1:0",
		Gateway:    fakeGateway{},
		ServerName: "ember-test",
		Protocol:   "HTTP/1.1",
		Timeout:    time.Second,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	s := &Server{config: cfg}
	s.stats = NewStats(nil, "ember_test")

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	s.listener = l

	m, err := newConnectionManager(s)
	if err != nil {
		t.Fatalf("newConnectionManager: %v", err)
	}
	t.Cleanup(m.close)
	s.manager = m
	return s, m
}

// dialPair dials the manager's listener and returns both ends of the
// resulting TCP connection.
func dialPair(t *testing.T, s *Server) (client net.Conn, server net.Conn) {
	t.Helper()

	client, err := net.Dial("tcp", s.listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server, err = s.listener.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return client, server
}

func TestPutIdleConnectionRegisters(t *testing.T) {
	s, m := newTestManager(t)
	_, srv := dialPair(t, s)

	c := newConnection(s, srv, nil, nil)
	m.put(c)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readable) != 0 {
		t.Error("an idle connection with no buffered data belongs in the selector, not the deque")
	}
	if _, ok := m.registered[c.fd()]; !ok {
		t.Error("put should register the idle connection's fd with the selector")
	}
}

func TestPutPipelinedConnectionSkipsSelector(t *testing.T) {
	s, m := newTestManager(t)
	client, srv := dialPair(t, s)

	c := newConnection(s, srv, nil, nil)

	// Buffer the start of a second request so HasBufferedData is true.
	if _, err := client.Write([]byte("GET /next HTTP/1.1\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := c.reader().Peek(1); err != nil {
		t.Fatalf("Peek: %v", err)
	}

	m.put(c)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readable) != 1 {
		t.Error("a connection with buffered data belongs on the ready deque")
	}
	if len(m.registered) != 0 {
		t.Error("a pipelined connection must not also be selector-registered")
	}
}

func TestGetConnReturnsReadableHead(t *testing.T) {
	s, m := newTestManager(t)
	_, srv := dialPair(t, s)

	c := newConnection(s, srv, nil, nil)
	m.mu.Lock()
	m.readable = append(m.readable, c)
	m.mu.Unlock()

	if got := m.getConn(); got != c {
		t.Error("getConn should pop the ready deque before touching the selector")
	}
}

func TestGetConnAcceptsNewConnection(t *testing.T) {
	s, m := newTestManager(t)

	client, err := net.Dial("tcp", s.listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var got *Connection
	deadline := time.Now().Add(2 * time.Second)
	for got == nil && time.Now().Before(deadline) {
		got = m.getConn()
	}
	if got == nil {
		t.Fatal("getConn never surfaced the pending connection on the listener")
	}
	got.close()
}

func TestExpireClosesStaleConnections(t *testing.T) {
	s, m := newTestManager(t)
	_, srv := dialPair(t, s)

	c := newConnection(s, srv, nil, nil)
	m.put(c)
	c.lastUsed = time.Now().Add(-2 * s.config.Timeout)

	m.expire()

	m.mu.Lock()
	registered := len(m.registered)
	m.mu.Unlock()
	if registered != 0 {
		t.Error("expire should deregister a connection idle past the server timeout")
	}
	if !c.closed {
		t.Error("expire should close the stale connection")
	}
}

func TestExpireKeepsFreshConnections(t *testing.T) {
	s, m := newTestManager(t)
	_, srv := dialPair(t, s)

	c := newConnection(s, srv, nil, nil)
	m.put(c)

	m.expire()

	if c.closed {
		t.Error("expire must not close a connection inside the idle window")
	}
}

func TestCanAddKeepAliveConnectionLimit(t *testing.T) {
	s, m := newTestManager(t)
	s.config.KeepAliveConnLimit = 1

	if !m.canAddKeepAliveConnection() {
		t.Error("an empty pool should accept a keep-alive connection")
	}

	_, srv := dialPair(t, s)
	c := newConnection(s, srv, nil, nil)

	m.mu.Lock()
	m.readable = append(m.readable, c)
	m.mu.Unlock()

	if m.canAddKeepAliveConnection() {
		t.Error("the keep-alive cap should refuse once the idle count reaches the limit")
	}
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	s, _ := newTestManager(t)
	_, srv := dialPair(t, s)

	c := newConnection(s, srv, nil, nil)
	c.close()
	c.close()
	c.close()

	if !c.closed {
		t.Error("connection should report closed")
	}
}
