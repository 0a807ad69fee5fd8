// File: api/handles.go
// Author: momentics <momentics@gmail.com>
//
// Transparent 64-bit handles, the only externally visible
// representation of reactor-owned entities.

package api

// IoHandle references a registered I/O source. Valid from RegisterIO
// until DeregisterIO; a handle is never reissued while its entry is
// live, and stale lookups fail rather than alias a newer entry.
type IoHandle uint64

// TimerHandle references a pending timer. Invalidated when the timer
// fires or is cancelled.
type TimerHandle uint64

// Boundary status codes returned by exports that can fail. Zero means
// success; negative values identify the failure class.
const (
	CodeOK                int32 = 0
	CodeInvalidDescriptor int32 = -1
	CodeTableExhausted    int32 = -2
	CodeTimerOverflow     int32 = -3
	CodePollBackend       int32 = -4
	CodeClosed            int32 = -5
	CodePanicked          int32 = -6
)
