// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral contract for the OS readiness poller. Interest is
// oneshot: a reported event disarms the source until the next modify.

package reactor

import "time"

// pollEvent is one readiness report. key carries the source handle
// through the OS poller's user-data slot.
type pollEvent struct {
	key      uint64
	readable bool
	writable bool
}

// osPoller abstracts the platform polling primitive (epoll on Linux).
type osPoller interface {
	// add registers fd with the given oneshot interest. Called lazily,
	// on the first readiness poll of a source.
	add(fd int, key uint64, read, write bool) error

	// modify re-arms fd with the given oneshot interest.
	modify(fd int, key uint64, read, write bool) error

	// delete removes fd from the interest set.
	delete(fd int) error

	// wait blocks up to timeout for events. timeout < 0 waits
	// indefinitely, 0 polls without blocking. Interruption by a signal
	// is not an error and reports zero events.
	wait(events []pollEvent, timeout time.Duration) (int, error)

	close() error
}
