//go:build linux

// File: asyncio/udp_linux.go
// Author: momentics <momentics@gmail.com>
//
// Non-blocking UDP over the boundary exports.

package asyncio

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/runtime"
)

// UDPConn is a bound non-blocking UDP socket. Owns its descriptor.
type UDPConn struct {
	afd *AsyncFD
}

// ListenUDP binds a UDP socket on address. Port 0 picks an ephemeral
// port, readable from Addr.
func ListenUDP(exp *runtime.Exports, address string) (*UDPConn, error) {
	sa, family, err := resolveSockaddr("udp", address)
	if err != nil {
		return nil, err
	}
	fd, err := newNonblockSocket(family, unix.SOCK_DGRAM)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "bind")
	}

	afd, err := NewAsyncFD(exp, fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &UDPConn{afd: afd}, nil
}

// Addr reports the bound local address.
func (u *UDPConn) Addr() (*net.UDPAddr, error) {
	sa, err := unix.Getsockname(u.afd.FD())
	if err != nil {
		return nil, errors.Wrap(err, "getsockname")
	}
	ip, port := sockaddrToAddr(sa)
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

// PollRecvFrom receives one datagram.
func (u *UDPConn) PollRecvFrom(token api.WakeToken, buf []byte) (int, *net.UDPAddr, api.PollStatus, error) {
	for {
		n, sa, err := unix.Recvfrom(u.afd.FD(), buf, 0)
		switch {
		case err == nil:
			ip, port := sockaddrToAddr(sa)
			return n, &net.UDPAddr{IP: ip, Port: port}, api.StatusReady, nil
		case err == unix.EAGAIN:
			if u.afd.PollReadable(token) == api.StatusPending {
				return 0, nil, api.StatusPending, nil
			}
		case err == unix.EINTR:
		default:
			return 0, nil, api.StatusReady, errors.Wrap(err, "udp recvfrom")
		}
	}
}

// PollSendTo sends one datagram to address.
func (u *UDPConn) PollSendTo(token api.WakeToken, buf []byte, address string) (api.PollStatus, error) {
	sa, _, err := resolveSockaddr("udp", address)
	if err != nil {
		return api.StatusReady, err
	}
	for {
		err := unix.Sendto(u.afd.FD(), buf, 0, sa)
		switch {
		case err == nil:
			return api.StatusReady, nil
		case err == unix.EAGAIN:
			if u.afd.PollWritable(token) == api.StatusPending {
				return api.StatusPending, nil
			}
		case err == unix.EINTR:
		default:
			return api.StatusReady, errors.Wrap(err, "udp sendto")
		}
	}
}

// Close deregisters and closes the socket.
func (u *UDPConn) Close() error {
	u.afd.Close()
	return unix.Close(u.afd.FD())
}
