//go:build windows

package ember

import (
	"net"
	"unsafe"

	"golang.org/x/sys/windows"
)

// setNonInheritable clears HANDLE_FLAG_INHERIT on the socket handle
// backing conn, the Windows equivalent of CLOEXEC.
func setNonInheritable(conn net.Conn) {
	fd := connFD(conn)
	if fd < 0 {
		return
	}
	_ = windows.SetHandleInformation(windows.Handle(fd), windows.HANDLE_FLAG_INHERIT, 0)
}

// fdAlive reports whether fd still refers to an open socket handle.
func fdAlive(fd int) bool {
	var ty uint32
	l := int32(4)
	err := windows.Getsockopt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_TYPE,
		(*byte)(unsafe.Pointer(&ty)), &l)
	return err == nil
}

