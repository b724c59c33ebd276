//go:build linux

package sys

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// WaitRead parks the calling goroutine until the descriptor is readable or
// the peer hung up. EINTR wakeups are absorbed.
func WaitRead(sock int) error {
	return wait(sock, unix.POLLIN|unix.POLLRDHUP, -1)
}

// WaitWrite parks the calling goroutine until the descriptor is writable.
func WaitWrite(sock int) error {
	return wait(sock, unix.POLLOUT, -1)
}

// WaitReadTimeout is WaitRead with an upper bound. A zero or negative bound
// waits forever. Returning nil on timeout is deliberate: callers use it to
// re-check state that may have changed without descriptor readiness.
func WaitReadTimeout(sock int, millis int) error {
	if millis <= 0 {
		millis = -1
	}
	return wait(sock, unix.POLLIN|unix.POLLRDHUP, millis)
}

func wait(sock int, events int16, millis int) error {
	fds := []unix.PollFd{{Fd: int32(sock), Events: events}}
	for {
		_, err := unix.Poll(fds, millis)
		if err == nil {
			return nil
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return os.NewSyscallError("poll", err)
	}
}
