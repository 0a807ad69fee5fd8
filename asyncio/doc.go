// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package asyncio is the consumer surface over the runtime's boundary
// exports: async file descriptors, one-shot timers, and non-blocking
// TCP/UDP wrappers. Everything here reaches the shared runtime only
// through a *runtime.Exports table, the same contract a dynamically
// loaded module lives under, never through reactor or executor
// internals.
package asyncio
