//go:build !windows

package ember

import (
	"net"

	"golang.org/x/sys/unix"
)

// setNonInheritable marks the socket backing conn CLOEXEC: an accepted
// connection's fd must not survive a fork/exec of a loaded app.
func setNonInheritable(conn net.Conn) {
	fd := connFD(conn)
	if fd < 0 {
		return
	}
	_, _ = unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC)
}

// fdAlive reports whether fd still refers to an open descriptor, used by
// the connection manager's selector-error recovery path: any registered
// fd that fstat fails for is invalid and its connection is dropped.
func fdAlive(fd int) bool {
	var stat unix.Stat_t
	return unix.Fstat(fd, &stat) == nil
}
