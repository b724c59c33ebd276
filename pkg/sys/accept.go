//go:build linux

package sys

import (
	"errors"
	"os"
	"syscall"
)

// Accept takes the next pending connection off a non-blocking listener and
// returns it as a non-blocking Fd. It reports syscall.EAGAIN unwrapped when
// the backlog is empty so callers can poll and retry; EINTR is absorbed.
func Accept(ln *Fd) (fd *Fd, err error) {
	for {
		sock, sa, acceptErr := syscall.Accept4(ln.sock, syscall.SOCK_NONBLOCK|syscall.SOCK_CLOEXEC)
		if acceptErr != nil {
			if errors.Is(acceptErr, syscall.EINTR) {
				continue
			}
			if errors.Is(acceptErr, syscall.EAGAIN) {
				err = syscall.EAGAIN
				return
			}
			err = os.NewSyscallError("accept4", acceptErr)
			return
		}
		fd = NewFd(ln.net, sock, ln.family, ln.sotype)
		fd.SetLocalAddr(ln.laddr)
		fd.SetRemoteAddr(SockaddrToAddr(ln.net, sa))
		return
	}
}
