//go:build windows

package selector

import (
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// windowsSelector backs Selector on Windows with WSAPoll. There is no
// cheap self-pipe equivalent for winsock handles, so Wakeup sets a flag
// Wait observes after each bounded poll slice instead of interrupting a
// blocking call directly.
type windowsSelector struct {
	mu     sync.Mutex
	fds    map[int]struct{}
	wake   chan struct{}
}

// New creates the platform Selector: WSAPoll on Windows.
func New() (Selector, error) {
	return &windowsSelector{fds: make(map[int]struct{}), wake: make(chan struct{}, 1)}, nil
}

func (s *windowsSelector) Register(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fds[fd] = struct{}{}
	return nil
}

func (s *windowsSelector) Deregister(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fds, fd)
	return nil
}

// pollSlice bounds each WSAPoll call so a pending Wakeup is noticed
// promptly even though there's no fd to register it against.
const pollSlice = 200 * time.Millisecond

func (s *windowsSelector) Wait(timeout time.Duration) ([]Event, error) {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		select {
		case <-s.wake:
			return nil, nil
		default:
		}

		s.mu.Lock()
		fds := make([]windows.WSAPollFd, 0, len(s.fds))
		for fd := range s.fds {
			fds = append(fds, windows.WSAPollFd{Fd: windows.Handle(fd), Events: windows.POLLRDNORM})
		}
		s.mu.Unlock()

		slice := pollSlice
		if !deadline.IsZero() {
			if remaining := time.Until(deadline); remaining < slice {
				slice = remaining
			}
		}
		if slice < 0 {
			return nil, nil
		}

		n, err := windows.WSAPoll(fds, int32(slice/time.Millisecond))
		if err != nil {
			return nil, err
		}
		if n > 0 {
			out := make([]Event, 0, n)
			for _, pfd := range fds {
				if pfd.REvents == 0 {
					continue
				}
				out = append(out, Event{
					FD:       int(pfd.Fd),
					Readable: pfd.REvents&windows.POLLRDNORM != 0,
					Hangup:   pfd.REvents&(windows.POLLHUP|windows.POLLERR) != 0,
				})
			}
			if len(out) > 0 {
				return out, nil
			}
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, nil
		}
	}
}

func (s *windowsSelector) Wakeup() error {
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *windowsSelector) Close() error {
	return nil
}
