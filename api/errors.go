// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Common error values used across the runtime.

package api

import "errors"

var (
	// ErrInvalidDescriptor indicates an I/O registration with a negative
	// or otherwise unusable descriptor. Local to the failing call.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrTableExhausted indicates the source table reached its
	// configured capacity. Local to the failing call; retryable after
	// deregistrations.
	ErrTableExhausted = errors.New("source table exhausted")

	// ErrTimerOverflow indicates deadline arithmetic would overflow.
	// Rejected at creation time.
	ErrTimerOverflow = errors.New("timer deadline overflow")

	// ErrPollBackend indicates the OS poll call failed. Recoverable:
	// the driver loop is expected to retry.
	ErrPollBackend = errors.New("poll backend failure")

	// ErrRuntimeClosed indicates the runtime has been shut down.
	ErrRuntimeClosed = errors.New("runtime is closed")

	// ErrUnitPanicked indicates a unit of work faulted mid-poll. The
	// fault is carried as a value, never as an unwind.
	ErrUnitPanicked = errors.New("unit of work panicked")
)

// ErrorForCode is the inverse of CodeForError, used by consumers on
// the far side of the boundary to re-materialize the failure class.
func ErrorForCode(code int32) error {
	switch code {
	case CodeOK:
		return nil
	case CodeInvalidDescriptor:
		return ErrInvalidDescriptor
	case CodeTableExhausted:
		return ErrTableExhausted
	case CodeTimerOverflow:
		return ErrTimerOverflow
	case CodeClosed:
		return ErrRuntimeClosed
	case CodePanicked:
		return ErrUnitPanicked
	default:
		return ErrPollBackend
	}
}

// CodeForError maps an error to its boundary status code.
func CodeForError(err error) int32 {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidDescriptor):
		return CodeInvalidDescriptor
	case errors.Is(err, ErrTableExhausted):
		return CodeTableExhausted
	case errors.Is(err, ErrTimerOverflow):
		return CodeTimerOverflow
	case errors.Is(err, ErrRuntimeClosed):
		return CodeClosed
	case errors.Is(err, ErrUnitPanicked):
		return CodePanicked
	default:
		return CodePollBackend
	}
}
