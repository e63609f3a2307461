//go:build windows

package errs

import (
	"errors"

	"golang.org/x/sys/windows"
)

func isEINTR(err error) bool {
	return errors.Is(err, windows.WSAEINTR)
}

func isNonblocking(err error) bool {
	return errors.Is(err, windows.WSAEWOULDBLOCK)
}

func isIgnorableSocketError(err error) bool {
	switch {
	case errors.Is(err, windows.WSAECONNRESET),
		errors.Is(err, windows.WSAECONNABORTED),
		errors.Is(err, windows.WSAECONNREFUSED),
		errors.Is(err, windows.WSAENOTCONN),
		errors.Is(err, windows.WSAETIMEDOUT),
		errors.Is(err, windows.WSAEHOSTDOWN),
		errors.Is(err, windows.WSAEHOSTUNREACH),
		errors.Is(err, windows.WSAENETRESET),
		errors.Is(err, windows.WSAENETDOWN),
		errors.Is(err, windows.WSAENETUNREACH),
		errors.Is(err, windows.WSAENOTSOCK):
		return true
	}
	return false
}

func isAcceptableShutdownError(err error) bool {
	switch {
	case errors.Is(err, windows.WSAECONNRESET),
		errors.Is(err, windows.WSAENOTCONN),
		errors.Is(err, windows.WSAESHUTDOWN):
		return true
	}
	return false
}
