// File: asyncio/timer.go
// Author: momentics <momentics@gmail.com>
//
// One-shot timer over the boundary exports.

package asyncio

import (
	"time"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/runtime"
)

// Timer is a one-shot timer. Poll it from inside a unit of work; Close
// cancels it if it has not fired.
type Timer struct {
	exp    *runtime.Exports
	handle uint64
	fired  bool
}

// NewTimer arms a timer that fires after d.
func NewTimer(exp *runtime.Exports, d time.Duration) (*Timer, error) {
	if d < 0 {
		d = 0
	}
	handle, status := exp.TimerCreate(uint64(d))
	if status != api.CodeOK {
		return nil, api.ErrorForCode(status)
	}
	return &Timer{exp: exp, handle: handle}, nil
}

// Poll reports StatusReady once the deadline has passed. Pending polls
// store the token's waker with the reactor.
func (t *Timer) Poll(token api.WakeToken) api.PollStatus {
	if t.fired {
		return api.StatusReady
	}
	status := t.exp.TimerPoll(t.handle, token)
	if status == api.StatusReady {
		t.fired = true
	}
	return status
}

// Close cancels the timer if it has not fired. Safe to call after fire.
func (t *Timer) Close() {
	if !t.fired {
		t.exp.TimerCancel(t.handle)
	}
}

// Sleep builds a unit of work that waits d, runs then (if non-nil),
// and completes. The timer is cancelled if the unit is retired early.
func Sleep(exp *runtime.Exports, d time.Duration, then func()) (api.UnitOfWork, error) {
	t, err := NewTimer(exp, d)
	if err != nil {
		return api.UnitOfWork{}, err
	}
	return api.UnitOfWork{
		Poll: func(token api.WakeToken) api.PollStatus {
			if t.Poll(token) == api.StatusPending {
				return api.StatusPending
			}
			if then != nil {
				then()
			}
			return api.StatusReady
		},
		Drop: t.Close,
	}, nil
}
