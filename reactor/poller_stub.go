//go:build !linux

// File: reactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for unsupported platforms.

package reactor

import "errors"

func newOSPoller() (osPoller, error) {
	return nil, errors.New("reactor: this platform is not supported")
}
