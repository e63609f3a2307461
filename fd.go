package ember

import (
	"net"
	"syscall"
)

// fdOf extracts the raw file descriptor backing sc, for selector
// registration and for marking accepted sockets non-inheritable.
func fdOf(sc syscall.Conn) int {
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	_ = raw.Control(func(p uintptr) {
		fd = int(p)
	})
	return fd
}

// connFD returns the fd backing a net.Conn, or -1 if it doesn't expose
// one (never true for TCP/Unix sockets, the only kinds this server
// accepts).
func connFD(c net.Conn) int {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return -1
	}
	return fdOf(sc)
}

// listenerFD returns the fd backing a net.Listener.
func listenerFD(l net.Listener) int {
	sc, ok := l.(syscall.Conn)
	if !ok {
		return -1
	}
	return fdOf(sc)
}
