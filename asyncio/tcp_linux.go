//go:build linux

// File: asyncio/tcp_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking TCP over the boundary exports. All operations follow
// the readiness retry contract: attempt the syscall, and on EAGAIN
// park on the reactor until the next readiness report.

package asyncio

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/runtime"
)

// TCPStream is a connected non-blocking TCP socket. Unlike AsyncFD, a
// stream owns its descriptor and closes it on Close.
type TCPStream struct {
	afd *AsyncFD
}

// TCPDial is an in-flight non-blocking connect. Poll it until Ready.
type TCPDial struct {
	afd  *AsyncFD
	done bool
}

// DialTCP initiates a non-blocking connect to address and returns the
// dial operation to poll for completion.
func DialTCP(exp *runtime.Exports, address string) (*TCPDial, error) {
	sa, family, err := resolveSockaddr("tcp", address)
	if err != nil {
		return nil, err
	}
	fd, err := newNonblockSocket(family, unix.SOCK_STREAM)
	if err != nil {
		return nil, err
	}

	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return nil, errors.Wrap(err, "connect")
	}

	afd, err := NewAsyncFD(exp, fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &TCPDial{afd: afd}, nil
}

// Poll completes the connect. Pending until the socket reports
// writable; then SO_ERROR decides between a stream and a failure.
func (d *TCPDial) Poll(token api.WakeToken) (*TCPStream, api.PollStatus, error) {
	if d.done {
		return nil, api.StatusReady, errors.New("dial already completed")
	}
	if d.afd.PollWritable(token) == api.StatusPending {
		return nil, api.StatusPending, nil
	}
	d.done = true
	if err := socketError(d.afd.FD()); err != nil {
		d.abort()
		return nil, api.StatusReady, errors.Wrap(err, "connect")
	}
	return &TCPStream{afd: d.afd}, api.StatusReady, nil
}

// abort releases the half-connected socket.
func (d *TCPDial) abort() {
	d.afd.Close()
	unix.Close(d.afd.FD())
}

// PollRead reads into buf. Returns (0, Ready, nil) on EOF.
func (s *TCPStream) PollRead(token api.WakeToken, buf []byte) (int, api.PollStatus, error) {
	for {
		n, err := unix.Read(s.afd.FD(), buf)
		switch {
		case err == nil:
			return n, api.StatusReady, nil
		case err == unix.EAGAIN:
			if s.afd.PollReadable(token) == api.StatusPending {
				return 0, api.StatusPending, nil
			}
			// Spurious wake: readiness was consumed elsewhere, retry.
		case err == unix.EINTR:
			// retry
		default:
			return 0, api.StatusReady, errors.Wrap(err, "tcp read")
		}
	}
}

// PollWrite writes buf, possibly partially.
func (s *TCPStream) PollWrite(token api.WakeToken, buf []byte) (int, api.PollStatus, error) {
	for {
		n, err := unix.Write(s.afd.FD(), buf)
		switch {
		case err == nil:
			return n, api.StatusReady, nil
		case err == unix.EAGAIN:
			if s.afd.PollWritable(token) == api.StatusPending {
				return 0, api.StatusPending, nil
			}
		case err == unix.EINTR:
		default:
			return 0, api.StatusReady, errors.Wrap(err, "tcp write")
		}
	}
}

// FD returns the underlying descriptor.
func (s *TCPStream) FD() int { return s.afd.FD() }

// Close deregisters and closes the socket.
func (s *TCPStream) Close() error {
	s.afd.Close()
	return unix.Close(s.afd.FD())
}

// TCPListener accepts connections through the reactor.
type TCPListener struct {
	afd *AsyncFD
}

// ListenTCP binds address and starts listening. Port 0 picks an
// ephemeral port, readable from Addr.
func ListenTCP(exp *runtime.Exports, address string) (*TCPListener, error) {
	sa, family, err := resolveSockaddr("tcp", address)
	if err != nil {
		return nil, err
	}
	fd, err := newNonblockSocket(family, unix.SOCK_STREAM)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "setsockopt SO_REUSEADDR")
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "bind")
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "listen")
	}

	afd, err := NewAsyncFD(exp, fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &TCPListener{afd: afd}, nil
}

// Addr reports the bound local address.
func (l *TCPListener) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(l.afd.FD())
	if err != nil {
		return nil, errors.Wrap(err, "getsockname")
	}
	ip, port := sockaddrToAddr(sa)
	return &net.TCPAddr{IP: ip, Port: port}, nil
}

// PollAccept accepts one connection, registering the new socket with
// the shared reactor.
func (l *TCPListener) PollAccept(token api.WakeToken) (*TCPStream, api.PollStatus, error) {
	for {
		fd, _, err := unix.Accept4(l.afd.FD(), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
			afd, regErr := NewAsyncFD(l.afd.exp, fd)
			if regErr != nil {
				unix.Close(fd)
				return nil, api.StatusReady, regErr
			}
			return &TCPStream{afd: afd}, api.StatusReady, nil
		case err == unix.EAGAIN:
			if l.afd.PollReadable(token) == api.StatusPending {
				return nil, api.StatusPending, nil
			}
		case err == unix.EINTR:
		default:
			return nil, api.StatusReady, errors.Wrap(err, "accept")
		}
	}
}

// Close deregisters and closes the listening socket.
func (l *TCPListener) Close() error {
	l.afd.Close()
	return unix.Close(l.afd.FD())
}
