//go:build windows

package ember

import "syscall"

// controlTCP is a no-op on Windows: SO_REUSEADDR there permits port
// hijacking rather than fast restart, and IPV6_V6ONLY's default already
// matches the dual-stack behavior wanted on POSIX.
func controlTCP(network, address string, c syscall.RawConn) error {
	return nil
}
