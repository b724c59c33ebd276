package sys

import (
	"net"
	"os"
	"syscall"
)

func NewFd(network string, sock int, family int, sotype int) (fd *Fd) {
	fd = &Fd{
		sock:   sock,
		family: family,
		sotype: sotype,
		net:    network,
		laddr:  nil,
		raddr:  nil,
	}
	return
}

// Fd wraps a raw non-blocking socket descriptor together with its address
// family and resolved endpoints.
type Fd struct {
	sock   int
	family int
	sotype int
	net    string
	laddr  net.Addr
	raddr  net.Addr
}

func (fd *Fd) Name() string {
	var ls, rs string
	if fd.laddr != nil {
		ls = fd.laddr.String()
	}
	if fd.raddr != nil {
		rs = fd.raddr.String()
	}
	return fd.net + ":" + ls + "->" + rs
}

func (fd *Fd) Socket() int {
	return fd.sock
}

func (fd *Fd) Family() int {
	return fd.family
}

func (fd *Fd) Net() string {
	return fd.net
}

func (fd *Fd) LocalAddr() net.Addr {
	return fd.laddr
}

func (fd *Fd) SetLocalAddr(addr net.Addr) {
	fd.laddr = addr
}

func (fd *Fd) LoadLocalAddr() (err error) {
	sa, saErr := syscall.Getsockname(fd.sock)
	if saErr != nil {
		err = os.NewSyscallError("getsockname", saErr)
		return
	}
	fd.laddr = SockaddrToAddr(fd.net, sa)
	return
}

func (fd *Fd) RemoteAddr() net.Addr {
	return fd.raddr
}

func (fd *Fd) SetRemoteAddr(addr net.Addr) {
	fd.raddr = addr
}

func (fd *Fd) SetIpv6only(ipv6only bool) error {
	if fd.family == syscall.AF_INET6 {
		if err := syscall.SetsockoptInt(fd.sock, syscall.IPPROTO_IPV6, syscall.IPV6_V6ONLY, boolint(ipv6only)); err != nil {
			return os.NewSyscallError("setsockopt", err)
		}
	}
	return nil
}

func (fd *Fd) AllowReuseAddr() error {
	if err := syscall.SetsockoptInt(fd.sock, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return nil
}

func (fd *Fd) SetNoDelay(noDelay bool) error {
	if fd.sotype == syscall.SOCK_STREAM {
		if err := syscall.SetsockoptInt(fd.sock, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, boolint(noDelay)); err != nil {
			return os.NewSyscallError("setsockopt", err)
		}
	}
	return nil
}

func (fd *Fd) Bind(addr net.Addr) error {
	sa, saErr := AddrToSockaddr(addr)
	if saErr != nil {
		return saErr
	}
	if err := syscall.Bind(fd.sock, sa); err != nil {
		return os.NewSyscallError("bind", err)
	}
	return nil
}

func (fd *Fd) Listen(backlog int) error {
	if err := syscall.Listen(fd.sock, backlog); err != nil {
		return os.NewSyscallError("listen", err)
	}
	return nil
}

func (fd *Fd) Close() error {
	return syscall.Close(fd.sock)
}

func (fd *Fd) CloseRead() error {
	return syscall.Shutdown(fd.sock, syscall.SHUT_RD)
}

func (fd *Fd) CloseWrite() error {
	return syscall.Shutdown(fd.sock, syscall.SHUT_WR)
}

func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}
