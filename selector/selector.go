// Package selector is the connection manager's readiness selector: given
// the server's listening socket and every idle connection's file
// descriptor, block until one or more are readable, a wakeup pipe is
// written to, or a deadline passes. Built on golang.org/x/sys so the
// package compiles without a C toolchain: epoll on Linux, poll(2)
// elsewhere on POSIX, WSAPoll on Windows.
package selector

import "time"

// Event reports one ready descriptor and why.
type Event struct {
	FD       int
	Readable bool
	Hangup   bool // peer closed or an error occurred on this fd
}

// Selector multiplexes readiness across an arbitrary number of file
// descriptors. Implementations must be safe for concurrent Register/
// Deregister/Wakeup calls from other goroutines while Wait blocks.
type Selector interface {
	// Register begins watching fd for read-readiness.
	Register(fd int) error
	// Deregister stops watching fd. Safe to call after fd is closed.
	Deregister(fd int) error
	// Wait blocks until at least one registered fd is ready, the
	// timeout elapses (timeout <= 0 means block indefinitely), or
	// Wakeup is called, returning the ready events.
	Wait(timeout time.Duration) ([]Event, error)
	// Wakeup causes a blocked Wait to return immediately with no
	// events, used to interrupt the manager loop for shutdown or to
	// register a freshly-accepted connection.
	Wakeup() error
	// Close releases the selector's own resources (epoll fd, wakeup
	// pipe). Registered fds are not closed.
	Close() error
}
