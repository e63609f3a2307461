//go:build !linux && !windows

package selector

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollSelector is the portable Selector backend for non-Linux platforms,
// built on poll(2) via golang.org/x/sys/unix instead of the Linux-only
// epoll calls. Less scalable than epoll under very high connection
// counts, acceptable for the platforms that land here.
type pollSelector struct {
	mu    sync.Mutex
	fds   map[int]struct{}
	wakeR int
	wakeW int
}

// New creates the platform Selector: poll(2) on non-Linux.
func New() (Selector, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		return nil, err
	}
	return &pollSelector{fds: make(map[int]struct{}), wakeR: fds[0], wakeW: fds[1]}, nil
}

func (s *pollSelector) Register(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fds[fd] = struct{}{}
	return nil
}

func (s *pollSelector) Deregister(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fds, fd)
	return nil
}

func (s *pollSelector) Wait(timeout time.Duration) ([]Event, error) {
	s.mu.Lock()
	fds := make([]unix.PollFd, 0, len(s.fds)+1)
	fds = append(fds, unix.PollFd{Fd: int32(s.wakeR), Events: unix.POLLIN})
	for fd := range s.fds {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	s.mu.Unlock()

	msec := -1
	if timeout > 0 {
		msec = int(timeout / time.Millisecond)
	}

	n, err := unix.Poll(fds, msec)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]Event, 0, n)
	for _, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		if int(pfd.Fd) == s.wakeR {
			drainWakePipe(s.wakeR)
			continue
		}
		out = append(out, Event{
			FD:       int(pfd.Fd),
			Readable: pfd.Revents&(unix.POLLIN|unix.POLLPRI) != 0,
			Hangup:   pfd.Revents&(unix.POLLHUP|unix.POLLERR) != 0,
		})
	}
	return out, nil
}

func drainWakePipe(fd int) {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (s *pollSelector) Wakeup() error {
	_, err := unix.Write(s.wakeW, []byte{0})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (s *pollSelector) Close() error {
	unix.Close(s.wakeR)
	unix.Close(s.wakeW)
	return nil
}
