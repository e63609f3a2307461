//go:build linux

package ember

import (
	"net"

	"golang.org/x/sys/unix"
)

// resolvePeerCreds reads SO_PEERCRED off a Unix-domain socket: the
// kernel-verified (pid, uid, gid) of the connecting process. Returns nil
// for non-Unix connections.
func resolvePeerCreds(conn net.Conn) *PeerCreds {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	fd := connFD(uc)
	if fd < 0 {
		return nil
	}
	cred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return nil
	}
	return &PeerCreds{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}
}
