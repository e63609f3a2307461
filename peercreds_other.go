//go:build !linux

package ember

import "net"

// resolvePeerCreds is a no-op on platforms without SO_PEERCRED. BSD's
// LOCAL_PEERCRED would plug in here with its own build-tagged file if
// this module needed it.
func resolvePeerCreds(conn net.Conn) *PeerCreds {
	return nil
}
