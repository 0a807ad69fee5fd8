// File: runtime/exports.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The boundary exports table. Every field is a func value over flat
// primitives and the api vocabulary, so independently compiled modules
// (host or dynamically loaded plugins) receive one *Exports and reach
// the shared runtime exclusively through it. No struct layout beyond
// these records ever crosses the boundary.

package runtime

import (
	"time"

	"github.com/momentics/plugrt/api"
)

// Exports is the stable call surface of one runtime instance.
type Exports struct {
	// IORegister adds fd to the source registry. Status 0 on success,
	// negative api code on failure; the handle is valid only when the
	// status is zero.
	IORegister func(fd int) (handle uint64, status int32)

	// IODeregister invalidates handle and removes any OS interest.
	IODeregister func(handle uint64)

	// IOPollReadable polls readability, storing token's waker when
	// Pending.
	IOPollReadable func(handle uint64, token api.WakeToken) api.PollStatus

	// IOPollWritable polls writability.
	IOPollWritable func(handle uint64, token api.WakeToken) api.PollStatus

	// TimerCreate arms a one-shot timer nanosFromNow nanoseconds ahead.
	TimerCreate func(nanosFromNow uint64) (handle uint64, status int32)

	// TimerCancel discards a pending timer and its stored waker.
	TimerCancel func(handle uint64)

	// TimerPoll polls a timer for expiry.
	TimerPoll func(handle uint64, token api.WakeToken) api.PollStatus

	// Spawn submits a unit of work.
	Spawn func(unit api.UnitOfWork)

	// TryTick polls one ready unit; false means the queue was empty.
	TryTick func() bool

	// Drive runs one reactor iteration bounded by timeoutMS
	// milliseconds (0 = non-blocking). Returns 0 on success, a
	// negative api code on failure.
	Drive func(timeoutMS uint64) int32

	// BlockOn drives the runtime until unit terminates. Returns 0 on
	// normal completion, CodePanicked if the unit faulted.
	BlockOn func(unit api.UnitOfWork) int32

	// Wake invokes the waker behind token. Stale tokens are a benign
	// spurious wake.
	Wake func(token api.WakeToken)
}

// Exports builds the boundary table for this runtime. The table is
// freshly allocated per call; all copies drive the same instance.
func (rt *Runtime) Exports() *Exports {
	return &Exports{
		IORegister: func(fd int) (uint64, int32) {
			h, err := rt.reactor.RegisterIO(fd)
			if err != nil {
				return 0, api.CodeForError(err)
			}
			return uint64(h), api.CodeOK
		},
		IODeregister: func(handle uint64) {
			rt.reactor.DeregisterIO(api.IoHandle(handle))
		},
		IOPollReadable: func(handle uint64, token api.WakeToken) api.PollStatus {
			return rt.reactor.PollReadable(api.IoHandle(handle), rt.exec.WakerFor(token))
		},
		IOPollWritable: func(handle uint64, token api.WakeToken) api.PollStatus {
			return rt.reactor.PollWritable(api.IoHandle(handle), rt.exec.WakerFor(token))
		},
		TimerCreate: func(nanos uint64) (uint64, int32) {
			h, err := rt.reactor.CreateTimer(nanos)
			if err != nil {
				return 0, api.CodeForError(err)
			}
			return uint64(h), api.CodeOK
		},
		TimerCancel: func(handle uint64) {
			rt.reactor.CancelTimer(api.TimerHandle(handle))
		},
		TimerPoll: func(handle uint64, token api.WakeToken) api.PollStatus {
			return rt.reactor.PollTimer(api.TimerHandle(handle), rt.exec.WakerFor(token))
		},
		Spawn: func(unit api.UnitOfWork) {
			rt.exec.Spawn(unit)
		},
		TryTick: rt.exec.TryTick,
		Drive: func(timeoutMS uint64) int32 {
			timeout := time.Duration(timeoutMS) * time.Millisecond
			if timeout < 0 {
				// Overflowed caller value; clamp to the configured bound.
				timeout = rt.cfg.DriveTimeout
			}
			return api.CodeForError(rt.Drive(timeout))
		},
		BlockOn: func(unit api.UnitOfWork) int32 {
			return api.CodeForError(rt.BlockOn(unit))
		},
		Wake: rt.exec.Wake,
	}
}
