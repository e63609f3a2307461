package ember

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
)

// bindListener picks the socket family: systemd socket activation,
// Unix-domain (path or Linux abstract), or TCP via getaddrinfo-equivalent
// resolution, which Go's net.Listen already performs.
func bindListener(bindAddr string, cfg Config) (net.Listener, error) {
	if os.Getenv("LISTEN_PID") != "" {
		return net.FileListener(os.NewFile(3, "listener"))
	}

	if strings.HasPrefix(bindAddr, "/") {
		return bindUnix(bindAddr)
	}
	if len(bindAddr) > 0 && bindAddr[0] == 0 {
		// Linux abstract namespace: a leading NUL, normalized to Go's
		// net package convention of a leading '@'.
		return bindUnix("@" + bindAddr[1:])
	}
	if strings.HasPrefix(bindAddr, "@") {
		return bindUnix(bindAddr)
	}

	return bindTCP(bindAddr, cfg)
}

// bindUnix binds a filesystem or abstract Unix-domain socket: unlink
// any stale path first (ignoring a
// does-not-exist error), bind, then chmod the path to 0777.
func bindUnix(path string) (net.Listener, error) {
	abstract := strings.HasPrefix(path, "@")
	if !abstract {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	if !abstract {
		if err := os.Chmod(path, 0o777); err != nil {
			_ = l.Close()
			return nil, err
		}
	}
	return l, nil
}

// bindTCP listens on host:port. Go's net.Listen already walks every
// resolved address the way getaddrinfo with AI_PASSIVE would; the
// build-tagged controlTCP applies the platform socket options
// (SO_REUSEADDR, IPV6_V6ONLY).
func bindTCP(addr string, cfg Config) (net.Listener, error) {
	lc := net.ListenConfig{Control: controlTCP}
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// isEphemeralPort reports whether addr asks for port 0, which skips
// SO_REUSEADDR so a just-released ephemeral port isn't rebound by
// accident.
func isEphemeralPort(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	p, err := strconv.Atoi(port)
	return err == nil && p == 0
}
