package sys

import (
	"errors"
	"net"
	"strconv"
	"syscall"
)

// Wildcard is the bind address sentinel meaning "every local interface".
const Wildcard = "*"

// ResolveBindAddr turns a literal bind address and port into a *net.TCPAddr
// plus its socket family. The address is either the wildcard sentinel or an
// IP literal; no name resolution is ever performed.
func ResolveBindAddr(address string, port int) (addr *net.TCPAddr, family int, ipv6only bool, err error) {
	if port < 0 || port > 65535 {
		err = errors.New("port is invalid: " + strconv.Itoa(port))
		return
	}
	if address == "" || address == Wildcard {
		addr = &net.TCPAddr{IP: net.IPv4zero.To4(), Port: port}
		family = syscall.AF_INET
		return
	}
	ip := net.ParseIP(address)
	if ip == nil {
		err = errors.New("address is invalid: " + address)
		return
	}
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	switch len(ip) {
	case net.IPv4len:
		family = syscall.AF_INET
	case net.IPv6len:
		family = syscall.AF_INET6
		ipv6only = true
	default:
		err = errors.New("address is invalid: " + address)
		return
	}
	addr = &net.TCPAddr{IP: ip, Port: port}
	return
}

func AddrToSockaddr(a net.Addr) (sa syscall.Sockaddr, err error) {
	addr, ok := a.(*net.TCPAddr)
	if !ok {
		err = errors.New("type of addr is invalid")
		return
	}
	if addr.AddrPort().Addr().Is4In6() {
		addr.IP = addr.IP.To4()
	}
	switch len(addr.IP) {
	case net.IPv4len:
		sa4 := &syscall.SockaddrInet4{
			Port: addr.Port,
			Addr: [4]byte{},
		}
		copy(sa4.Addr[:], addr.IP.To4())
		sa = sa4
		return
	case net.IPv6len:
		zoneId := uint32(0)
		if ifi, ifiErr := net.InterfaceByName(addr.Zone); ifiErr == nil {
			zoneId = uint32(ifi.Index)
		}
		sa6 := &syscall.SockaddrInet6{
			Port:   addr.Port,
			Addr:   [16]byte{},
			ZoneId: zoneId,
		}
		copy(sa6.Addr[:], addr.IP.To16())
		sa = sa6
		return
	default:
		err = errors.New("ip is invalid")
		return
	}
}

func SockaddrToAddr(network string, sa syscall.Sockaddr) (addr net.Addr) {
	switch sa := sa.(type) {
	case *syscall.SockaddrInet4:
		addr = &net.TCPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
		}
	case *syscall.SockaddrInet6:
		var zone string
		if sa.ZoneId != 0 {
			if ifi, err := net.InterfaceByIndex(int(sa.ZoneId)); err == nil {
				zone = ifi.Name
			}
		}
		addr = &net.TCPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
			Zone: zone,
		}
	}
	return
}
