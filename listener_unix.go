//go:build !windows

package ember

import (
	"net"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// controlTCP sets SO_REUSEADDR (skipped for an ephemeral port 0) and
// clears IPV6_V6ONLY when the address binds "::" so
// the socket also accepts IPv4-mapped connections (dual-stack).
func controlTCP(network, address string, c syscall.RawConn) error {
	var ctrlErr error
	err := c.Control(func(fd uintptr) {
		if !isEphemeralPort(address) {
			ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		}
		if host, _, splitErr := net.SplitHostPort(address); splitErr == nil && host == "::" {
			_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
		}
		if strings.HasPrefix(network, "unix") {
			ctrlErr = nil
		}
	})
	if err != nil {
		return err
	}
	return ctrlErr
}
