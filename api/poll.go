// File: api/poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tri-state poll status, wake tokens and the unit-of-work record that
// cross the module boundary as flat primitive values.

package api

// PollStatus is the result of advancing a pollable entity one step.
//
// A unit of work may fault while executing on the far side of the
// boundary; a fault cannot unwind across independently compiled code,
// so it is converted to StatusPanicked and surfaced as a value.
type PollStatus uint8

const (
	// StatusPending: not ready; a waker has been stored and will fire
	// when progress is possible.
	StatusPending PollStatus = 0

	// StatusReady: the entity completed; any payload is delivered
	// through the unit's own completion convention.
	StatusReady PollStatus = 1

	// StatusPanicked: the unit faulted mid-poll. The fault never
	// propagates as a native unwind across the boundary.
	StatusPanicked PollStatus = 2
)

// String implements fmt.Stringer for diagnostics.
func (s PollStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReady:
		return "Ready"
	case StatusPanicked:
		return "Panicked"
	default:
		return "Unknown"
	}
}

// WakeToken is an opaque capability referencing a pending unit of work.
// Invoking it (via the runtime's Wake export) marks that unit runnable
// and re-enters it into the executor's ready queue. Waking a token whose
// unit already completed or was cancelled is a benign spurious wake.
type WakeToken uint64

// Waker is the in-process translation of a wake token: an invokable
// that reschedules one specific unit of work. The reactor holds wakers
// on behalf of pending units but never owns them.
type Waker func()

// UnitOfWork is a resumable computation advanced one step per Poll
// call. It is a stable record of creator-supplied function pointers;
// the runtime invokes them without inspecting the unit's internal
// representation.
type UnitOfWork struct {
	// Poll advances the unit one step. The token must be forwarded to
	// any readiness/timer poll the unit performs so the reactor can
	// reschedule it.
	Poll func(token WakeToken) PollStatus

	// Drop releases resources owned by the unit. Called exactly once,
	// after the unit is retired (Ready or Panicked). May be nil.
	Drop func()
}
