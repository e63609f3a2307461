/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package ember

import (
	"net"
	"os/user"
	"strconv"
	"time"

	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/iox"
	"github.com/emberhttp/ember/tlsadapter"
	"github.com/emberhttp/ember/wire"
)

// PeerCreds holds the SO_PEERCRED-derived identity of a Unix-domain
// client, resolved at most once per connection. User and Group are
// filled lazily, only when name resolution is enabled.
type PeerCreds struct {
	PID int32
	UID uint32
	GID uint32

	User  string
	Group string

	resolved bool
}

// Connection binds one accepted socket (plain or TLS-wrapped) to its
// buffered reader/writer and bookkeeping. A Connection
// is transferred, never shared, between the manager, the ready queue and
// a worker.
type Connection struct {
	server *Server

	raw       net.Conn
	transport tlsadapter.Transport // nil when this connection is plaintext
	sslEnv    map[string]string

	r *iox.Reader
	w *iox.Writer

	lastUsed     time.Time
	requestsSeen int64

	remoteAddr string
	remotePort int

	peerCreds *PeerCreds // nil until first resolved

	// linger, when true, skips the kernel socket shutdown in close() so
	// the peer can still read a final response (the plaintext-on-TLS
	// 400 path). Set only there.
	linger bool

	closed bool
}

func newConnection(s *Server, raw net.Conn, transport tlsadapter.Transport, sslEnv map[string]string) *Connection {
	setNonInheritable(raw)
	underlying := transportOf(raw, transport)

	c := &Connection{
		server:    s,
		raw:       raw,
		transport: transport,
		sslEnv:    sslEnv,
		r:         iox.NewReader(underlying, 4096),
		w:         iox.NewWriter(underlying),
		lastUsed:  time.Now(),
	}

	if host, port, err := net.SplitHostPort(raw.RemoteAddr().String()); err == nil {
		c.remoteAddr = host
		if p, convErr := strconv.Atoi(port); convErr == nil {
			c.remotePort = p
		}
	}
	return c
}

func transportOf(raw net.Conn, t tlsadapter.Transport) iox.Transport {
	if t != nil {
		return t
	}
	return raw
}

func (c *Connection) reader() *iox.Reader { return c.r }
func (c *Connection) writer() *iox.Writer { return c.w }

// rawTransport exposes the unbuffered transport, used only for the
// plaintext-on-TLS 400 path which bypasses the normal buffered pipeline.
func (c *Connection) rawTransport() net.Conn { return c.raw }

func (c *Connection) writeStatusLine(status int, major, minor int) {
	reason := wire.StatusText(status)
	if reason == "" {
		reason = "Status"
	}
	line := "HTTP/" + strconv.Itoa(major) + "." + strconv.Itoa(minor) + " " +
		strconv.Itoa(status) + " " + reason + "\r\n"
	c.w.Write([]byte(line))
}

func (c *Connection) logError(msg string, lvl Level, err error) {
	c.server.config.ErrorLog(msg, lvl, err)
}

// touch updates lastUsed, called whenever the connection is handed back
// to the manager for reuse.
func (c *Connection) touch() {
	c.lastUsed = time.Now()
	c.requestsSeen++
}

// idleFor reports how long this connection has sat unused, for expire().
func (c *Connection) idleFor(now time.Time) time.Duration {
	return now.Sub(c.lastUsed)
}

// fd returns the underlying file descriptor for selector registration.
// Returns -1 if the connection doesn't implement syscall.Conn (never
// true for the TCP/Unix listeners this server supports).
func (c *Connection) fd() int {
	return connFD(c.raw)
}

// peerCredentials resolves and memoizes SO_PEERCRED identity for a Unix
// socket peer, a no-op returning nil on non-Unix connections or when
// peer-creds are disabled.
func (c *Connection) peerCredentials() *PeerCreds {
	if !c.server.config.PeerCredsEnabled {
		return nil
	}
	if c.peerCreds != nil {
		return c.peerCreds
	}
	pc := resolvePeerCreds(c.raw)
	c.peerCreds = pc
	return pc
}

// environ assembles the per-request environment map: the TLS-derived
// variables plus the peer's Unix credentials when enabled.
func (c *Connection) environ() map[string]string {
	pc := c.peerCredentials()
	if c.sslEnv == nil && pc == nil {
		return nil
	}

	env := make(map[string]string, len(c.sslEnv)+5)
	for k, v := range c.sslEnv {
		env[k] = v
	}
	if pc != nil {
		env["REMOTE_PID"] = strconv.Itoa(int(pc.PID))
		env["REMOTE_UID"] = strconv.FormatUint(uint64(pc.UID), 10)
		env["REMOTE_GID"] = strconv.FormatUint(uint64(pc.GID), 10)
		if c.server.config.PeerCredsResolveEnabled {
			resolvePeerNames(pc)
			if pc.User != "" {
				env["REMOTE_USER"] = pc.User
			}
			if pc.Group != "" {
				env["REMOTE_GROUP"] = pc.Group
			}
		}
	}
	return env
}

// resolvePeerNames fills in the username and group for a set of peer
// credentials, at most once.
func resolvePeerNames(pc *PeerCreds) {
	if pc.resolved {
		return
	}
	pc.resolved = true
	if u, err := user.LookupId(strconv.FormatUint(uint64(pc.UID), 10)); err == nil {
		pc.User = u.Username
	}
	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(pc.GID), 10)); err == nil {
		pc.Group = g.Name
	}
}

// close shuts down the connection exactly once: closes the buffered
// writer (and the transport under it), then the kernel socket. With
// linger set it closes neither.
func (c *Connection) close() {
	if c.closed {
		return
	}
	c.closed = true

	if c.linger {
		// Leave the socket open so the peer can still read the final
		// response; the runtime's fd finalizer reclaims it.
		return
	}

	_ = c.w.Close()
	if err := c.raw.Close(); err != nil && !errs.IsAcceptableShutdownError(err) {
		c.logError("error closing connection", WarnLevel, err)
	}
}
