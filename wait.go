// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"time"
)

// waitStatus polls the status register at base until
// status&mask == flags, returning the matching status byte. If the
// condition doesn't hold within timeout, ErrTimeout is returned.
func (h *Host) waitStatus(base uint16, mask, flags uint8, timeout time.Duration) (uint8, error) {
	deadline := h.clock.Now() + timeout
	for {
		status := h.ports.In8(base + regStatus)
		if status&mask == flags {
			return status, nil
		}
		if h.clock.Now() >= deadline {
			h.log.WithField("status", status).Warn("IDE time out")
			return status, ErrTimeout
		}
	}
}

func (h *Host) waitNotBusy(base uint16) (uint8, error) {
	return h.waitStatus(base, statusBSY, 0, ideTimeout)
}

func (h *Host) waitReady(base uint16) (uint8, error) {
	return h.waitStatus(base, statusRDY, statusRDY, ideTimeout)
}

// pauseWaitNotBusy waits one PIO transfer cycle by reading the
// alternate status register before polling. Devices are permitted to
// take that long to raise BSY after a data block.
func (h *Host) pauseWaitNotBusy(base, control uint16) (uint8, error) {
	h.ports.In8(control + regAltStatus)
	return h.waitNotBusy(base)
}

// ndelayWaitNotBusy waits out the 400ns register settling time
// required after a command write before polling.
func (h *Host) ndelayWaitNotBusy(base uint16) (uint8, error) {
	h.clock.Sleep(400 * time.Nanosecond)
	return h.waitNotBusy(base)
}
