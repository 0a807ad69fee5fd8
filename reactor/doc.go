// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor multiplexes OS I/O readiness and timer expiry into
// wake-token invocations. It owns the platform polling primitive, the
// I/O source registry and the timer registry; pending units of work
// reference its entries only through opaque 64-bit handles.
package reactor
