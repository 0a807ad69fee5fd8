// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api defines the primitive boundary vocabulary of the plugrt
// runtime: opaque handles, the tri-state poll status, wake tokens, the
// unit-of-work record, and the error taxonomy. Independently compiled
// modules interact with the runtime exclusively through these types;
// no internal layout ever crosses the boundary.
package api
