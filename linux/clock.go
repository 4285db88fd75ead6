// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

//go:build linux
// +build linux

package linux

import (
	"time"

	"golang.org/x/sys/unix"
)

// Clock implements atapio.Clock from CLOCK_MONOTONIC.
type Clock struct{}

// NewClock returns a Clock.
func NewClock() *Clock {
	return new(Clock)
}

// Now returns the monotonic clock reading.
func (c *Clock) Now() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// CLOCK_MONOTONIC is always available on Linux; fall back to
		// the runtime clock anyway rather than stopping the poll
		// loops.
		return time.Duration(time.Now().UnixNano())
	}
	return time.Duration(ts.Nano())
}

// Sleep delays for at least d. The Go runtime's timer resolution is
// coarser than the sub-microsecond settling delays the protocol asks
// for, which only makes the delays longer than required.
func (c *Clock) Sleep(d time.Duration) {
	time.Sleep(d)
}
