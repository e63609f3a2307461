package ember

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/selector"
	"github.com/emberhttp/ember/wire"
)

// connectionManager runs a level-triggered readiness selector over the
// listen socket and every idle keep-alive connection, plus a fast-path
// deque of connections already known to be servable. A connection's fd
// belongs to exactly one of the selector, the deque, or a worker at any
// instant; put and getConn are the handoff points.
type connectionManager struct {
	server *Server
	sel    selector.Selector

	listenerFD int

	mu         sync.Mutex
	registered map[int]*Connection
	readable   []*Connection
}

func newConnectionManager(s *Server) (*connectionManager, error) {
	sel, err := selector.New()
	if err != nil {
		return nil, err
	}
	fd := listenerFD(s.listener)
	if fd >= 0 {
		if err := sel.Register(fd); err != nil {
			_ = sel.Close()
			return nil, err
		}
	}
	return &connectionManager{
		server:     s,
		sel:        sel,
		listenerFD: fd,
		registered: make(map[int]*Connection),
	}, nil
}

// put is called by a worker returning a connection for reuse: pipelined
// connections with already-buffered data skip the selector and go
// straight back onto the fast path.
func (m *connectionManager) put(c *Connection) {
	c.touch()

	m.mu.Lock()
	defer m.mu.Unlock()

	if c.reader().HasBufferedData() {
		m.readable = append(m.readable, c)
		return
	}

	fd := c.fd()
	if fd < 0 {
		m.readable = append(m.readable, c)
		return
	}
	if err := m.sel.Register(fd); err != nil {
		m.readable = append(m.readable, c)
		return
	}
	m.registered[fd] = c
}

// popReadable pops the head of the ready deque, or nil if it's empty.
func (m *connectionManager) popReadable() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readable) == 0 {
		return nil
	}
	c := m.readable[0]
	m.readable = m.readable[1:]
	return c
}

// getConn pulls one ready connection: the deque fast path first, then a
// bounded selector wait that either accepts a new connection or migrates
// newly-readable idle connections onto the deque.
func (m *connectionManager) getConn() *Connection {
	if c := m.popReadable(); c != nil {
		return c
	}

	events, err := m.sel.Wait(10 * time.Millisecond)
	if err != nil {
		m.pruneInvalid()
		return nil
	}

	var accepted *Connection
	for _, ev := range events {
		if ev.FD == m.listenerFD {
			if c := m.accept(); c != nil && accepted == nil {
				accepted = c
			}
			continue
		}

		m.mu.Lock()
		c, ok := m.registered[ev.FD]
		if ok {
			delete(m.registered, ev.FD)
		}
		m.mu.Unlock()
		if !ok {
			continue
		}

		_ = m.sel.Deregister(ev.FD)
		if ev.Hangup {
			c.close()
			continue
		}
		m.mu.Lock()
		m.readable = append(m.readable, c)
		m.mu.Unlock()
	}

	if accepted != nil {
		return accepted
	}
	return m.popReadable()
}

// pruneInvalid recovers from a selector-level error by fstat-ing every
// registered fd and dropping the ones that no longer exist. The
// listening socket is left registered.
func (m *connectionManager) pruneInvalid() {
	m.mu.Lock()
	var dead []*Connection
	for fd, c := range m.registered {
		if !fdAlive(fd) {
			delete(m.registered, fd)
			dead = append(dead, c)
		}
	}
	m.mu.Unlock()

	for _, c := range dead {
		c.close()
	}
}

// accept accepts one connection off the listen socket, wraps it in TLS
// if configured, and builds a Connection. Returns nil (having already
// cleaned up) on any recoverable failure.
func (m *connectionManager) accept() *Connection {
	raw, err := m.server.listener.Accept()
	if err != nil {
		if errs.IsEINTR(err) || errs.IsNonblocking(err) || errs.IsIgnorableSocketError(err) {
			return nil
		}
		m.server.logError("accept failed", ErrorLevel, err)
		m.server.stats.recordSocketError()
		return nil
	}

	m.server.stats.recordAccept()
	setNonInheritable(raw)
	if tc, ok := raw.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(m.server.config.NoDelay)
	}

	if m.server.tlsAdapter == nil {
		return newConnection(m.server, raw, nil, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	transport, env, wrapErr := m.server.tlsAdapter.Wrap(ctx, raw)
	if wrapErr != nil {
		if errs.Is(wrapErr, errs.NoTLS) {
			m.rejectPlaintextOnTLS(raw)
		} else {
			_ = raw.Close()
		}
		return nil
	}
	return newConnection(m.server, raw, transport, env)
}

// rejectPlaintextOnTLS writes a plaintext 400 directly on the raw
// socket, with linger set so the client gets a chance to read it before
// the kernel tears down the connection. No TLS session exists here, so
// this bypasses the normal connection lifecycle.
func (m *connectionManager) rejectPlaintextOnTLS(raw net.Conn) {
	c := newConnection(m.server, raw, nil, nil)
	c.linger = true
	_ = wire.WriteSimpleResponse(c.rawTransport(), 400, noTLSMessage)
	c.close()
}

const noTLSMessage = "The client sent a plain HTTP request, but this server only speaks HTTPS on this port."

// expire closes every idle keep-alive connection whose lastUsed
// predates the server's configured timeout.
func (m *connectionManager) expire() {
	now := time.Now()

	m.mu.Lock()
	var stale []*Connection
	for fd, c := range m.registered {
		if c.idleFor(now) >= m.server.config.Timeout {
			delete(m.registered, fd)
			stale = append(stale, c)
		}
	}
	m.mu.Unlock()

	for _, c := range stale {
		_ = m.sel.Deregister(c.fd())
		c.close()
	}
}

// canAddKeepAliveConnection enforces the keep-alive cap. The idle
// count is registered plus readable; the listener's own fd is never
// counted as an idle connection.
func (m *connectionManager) canAddKeepAliveConnection() bool {
	limit := m.server.config.KeepAliveConnLimit
	if limit <= 0 {
		return true
	}
	m.mu.Lock()
	n := len(m.registered) + len(m.readable)
	m.mu.Unlock()
	return n < limit
}

// close closes every buffered connection (readable and registered) then
// the selector itself. The listen socket is closed by the server facade.
func (m *connectionManager) close() {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.registered)+len(m.readable))
	for _, c := range m.registered {
		conns = append(conns, c)
	}
	conns = append(conns, m.readable...)
	m.registered = make(map[int]*Connection)
	m.readable = nil
	m.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	_ = m.sel.Close()
}
