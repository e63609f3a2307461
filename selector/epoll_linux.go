//go:build linux

package selector

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollSelector is the Linux Selector backend: one epoll instance plus a
// self-pipe (an unnamed pipe registered for read-readiness) used to
// interrupt a blocked Wait from another goroutine, since epoll_wait
// itself can't be woken by anything but a registered fd or a signal.
type epollSelector struct {
	epfd int

	wakeR int
	wakeW int

	mu   sync.Mutex
	fds  map[int]struct{}
}

// New creates the platform Selector: epoll on Linux.
func New() (Selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	r, w, err := pipe2CloExecNonblock()
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	s := &epollSelector{epfd: epfd, wakeR: r, wakeW: w, fds: make(map[int]struct{})}
	if err := s.epCtl(unix.EPOLL_CTL_ADD, r, unix.EPOLLIN); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func pipe2CloExecNonblock() (r, w int, err error) {
	var fds [2]int
	if err = unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func (s *epollSelector) epCtl(op int, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(s.epfd, op, fd, &ev)
}

func (s *epollSelector) Register(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fds[fd]; ok {
		return nil
	}
	if err := s.epCtl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN); err != nil {
		return err
	}
	s.fds[fd] = struct{}{}
	return nil
}

func (s *epollSelector) Deregister(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fds[fd]; !ok {
		return nil
	}
	delete(s.fds, fd)
	err := s.epCtl(unix.EPOLL_CTL_DEL, fd, 0)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (s *epollSelector) Wait(timeout time.Duration) ([]Event, error) {
	msec := -1
	if timeout > 0 {
		msec = int(timeout / time.Millisecond)
	}

	raw := make([]unix.EpollEvent, 128)
	n, err := unix.EpollWait(s.epfd, raw, msec)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == s.wakeR {
			drainWakePipe(s.wakeR)
			continue
		}
		out = append(out, Event{
			FD:       fd,
			Readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLPRI) != 0,
			Hangup:   raw[i].Events&(unix.EPOLLHUP|unix.EPOLLERR|unix.EPOLLRDHUP) != 0,
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

func (s *epollSelector) Wakeup() error {
	_, err := unix.Write(s.wakeW, []byte{0})
	if err == unix.EAGAIN {
		return nil // pipe already has a pending wakeup byte
	}
	return err
}

func (s *epollSelector) Close() error {
	unix.Close(s.wakeR)
	unix.Close(s.wakeW)
	return unix.Close(s.epfd)
}
