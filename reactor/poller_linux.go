//go:build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7) poller. The 64-bit source handle rides in the epoll
// data union, split across the Fd and Pad fields of EpollEvent.

package reactor

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type epollPoller struct {
	epfd int
	raw  []unix.EpollEvent // reused across waits, sized on demand
}

func newOSPoller() (osPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll create")
	}
	return &epollPoller{epfd: epfd}, nil
}

func interestMask(read, write bool) uint32 {
	// Oneshot: a delivered event disarms the fd until the next
	// EPOLL_CTL_MOD, matching the store-waker-then-re-arm contract.
	mask := uint32(unix.EPOLLONESHOT)
	if read {
		mask |= unix.EPOLLIN
	}
	if write {
		mask |= unix.EPOLLOUT
	}
	return mask
}

func keyedEvent(key uint64, mask uint32) *unix.EpollEvent {
	return &unix.EpollEvent{
		Events: mask,
		Fd:     int32(key),
		Pad:    int32(key >> 32),
	}
}

func (p *epollPoller) add(fd int, key uint64, read, write bool) error {
	ev := keyedEvent(key, interestMask(read, write))
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return errors.Wrap(err, "epoll ctl add")
	}
	return nil
}

func (p *epollPoller) modify(fd int, key uint64, read, write bool) error {
	ev := keyedEvent(key, interestMask(read, write))
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return errors.Wrap(err, "epoll ctl mod")
	}
	return nil
}

func (p *epollPoller) delete(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return errors.Wrap(err, "epoll ctl del")
	}
	return nil
}

func (p *epollPoller) wait(events []pollEvent, timeout time.Duration) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
		if ms == 0 && timeout > 0 {
			// Sub-millisecond waits round up so short timers are not
			// spun on a zero-timeout poll.
			ms = 1
		}
	}

	if len(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]
	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, errors.Wrap(err, "epoll wait")
	}

	for i := 0; i < n; i++ {
		key := uint64(uint32(raw[i].Fd)) | uint64(uint32(raw[i].Pad))<<32
		hup := raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
		events[i] = pollEvent{
			key: key,
			// Error/hangup wakes both directions: the pending unit must
			// re-attempt its I/O and observe the failure itself.
			readable: raw[i].Events&unix.EPOLLIN != 0 || hup,
			writable: raw[i].Events&unix.EPOLLOUT != 0 || hup,
		}
	}
	return n, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}
