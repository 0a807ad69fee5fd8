//go:build linux

// File: asyncio/sockaddr_linux.go
// Author: momentics <momentics@gmail.com>
//
// Socket address conversions and non-blocking socket setup shared by
// the TCP and UDP wrappers.

package asyncio

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// resolveSockaddr parses "host:port" into a unix.Sockaddr and the
// matching address family.
func resolveSockaddr(network, address string) (unix.Sockaddr, int, error) {
	var ip net.IP
	var port int

	switch network {
	case "tcp":
		addr, err := net.ResolveTCPAddr(network, address)
		if err != nil {
			return nil, 0, errors.Wrap(err, "resolve tcp addr")
		}
		ip, port = addr.IP, addr.Port
	case "udp":
		addr, err := net.ResolveUDPAddr(network, address)
		if err != nil {
			return nil, 0, errors.Wrap(err, "resolve udp addr")
		}
		ip, port = addr.IP, addr.Port
	default:
		return nil, 0, errors.Errorf("unsupported network %q", network)
	}

	if ip4 := ip.To4(); ip4 != nil || ip == nil {
		sa := &unix.SockaddrInet4{Port: port}
		if ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return sa, unix.AF_INET, nil
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, unix.AF_INET6, nil
}

// sockaddrToAddr converts a kernel-reported sockaddr back to net form.
func sockaddrToAddr(sa unix.Sockaddr) (net.IP, int) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(v.Addr[:]), v.Port
	case *unix.SockaddrInet6:
		return net.IP(v.Addr[:]), v.Port
	default:
		return nil, 0
	}
}

// newNonblockSocket creates a CLOEXEC non-blocking socket.
func newNonblockSocket(family, sotype int) (int, error) {
	fd, err := unix.Socket(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, errors.Wrap(err, "socket")
	}
	return fd, nil
}

// socketError reads and clears SO_ERROR, the completion status of a
// non-blocking connect.
func socketError(fd int) error {
	soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return errors.Wrap(err, "getsockopt SO_ERROR")
	}
	if soerr != 0 {
		return unix.Errno(soerr)
	}
	return nil
}
