// File: asyncio/asyncfd.go
// Author: momentics <momentics@gmail.com>
//
// Readiness polling for an externally owned file descriptor.

package asyncio

import (
	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/runtime"
)

// AsyncFD registers a file descriptor with the shared reactor for
// readiness polling. It does NOT own the descriptor; the caller
// remains responsible for closing it, after Close has deregistered it.
type AsyncFD struct {
	exp    *runtime.Exports
	handle uint64
	fd     int
}

// NewAsyncFD registers fd through the exports table.
func NewAsyncFD(exp *runtime.Exports, fd int) (*AsyncFD, error) {
	handle, status := exp.IORegister(fd)
	if status != api.CodeOK {
		return nil, api.ErrorForCode(status)
	}
	return &AsyncFD{exp: exp, handle: handle, fd: fd}, nil
}

// FD returns the raw descriptor.
func (a *AsyncFD) FD() int { return a.fd }

// Handle returns the reactor handle.
func (a *AsyncFD) Handle() uint64 { return a.handle }

// PollReadable polls for readability. On StatusReady the caller should
// attempt the read; EAGAIN afterwards means the wake was spurious and
// the poll must be repeated.
func (a *AsyncFD) PollReadable(token api.WakeToken) api.PollStatus {
	return a.exp.IOPollReadable(a.handle, token)
}

// PollWritable polls for writability, same contract as PollReadable.
func (a *AsyncFD) PollWritable(token api.WakeToken) api.PollStatus {
	return a.exp.IOPollWritable(a.handle, token)
}

// Close deregisters the descriptor. Stored waiters are dropped, and
// the handle becomes permanently stale.
func (a *AsyncFD) Close() {
	a.exp.IODeregister(a.handle)
}
