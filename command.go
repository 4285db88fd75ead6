// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"time"

	"golang.org/x/xerrors"
)

// Command is the task file image written to a device to start one
// command. The second set of count/LBA bytes is only written when the
// 48-bit flag is set in Code.
type Command struct {
	Feature uint8
	Count   uint8
	LBALow  uint8
	LBAMid  uint8
	LBAHigh uint8
	Device  uint8
	Code    uint8

	Count2   uint8
	LBALow2  uint8
	LBAMid2  uint8
	LBAHigh2 uint8
}

// makeDataCommand encodes the LBA and sector count of op into a task
// file image, selecting the 48-bit form of the opcode when the count
// doesn't fit in one byte or the address range crosses the 28-bit
// limit.
func makeDataCommand(op *DiskOp) *Command {
	lba := op.LBA
	cmd := &Command{Code: op.Command}

	if op.Count >= 1<<8 || lba+uint64(op.Count) >= 1<<28 {
		cmd.Count2 = uint8(op.Count >> 8)
		cmd.LBALow2 = uint8(lba >> 24)
		cmd.LBAMid2 = uint8(lba >> 32)
		cmd.LBAHigh2 = uint8(lba >> 40)

		cmd.Code |= cmdFlagExt
		lba &= 0xffffff
	}

	cmd.Count = uint8(op.Count)
	cmd.LBALow = uint8(lba)
	cmd.LBAMid = uint8(lba >> 8)
	cmd.LBAHigh = uint8(lba >> 16)
	cmd.Device = uint8((op.LBA>>24)&0xf) | devHeadLBA
	return cmd
}

// decodeLBA reconstructs the LBA and sector count encoded in cmd.
func (cmd *Command) decodeLBA() (lba uint64, count int) {
	lba = uint64(cmd.LBALow) | uint64(cmd.LBAMid)<<8 | uint64(cmd.LBAHigh)<<16
	count = int(cmd.Count)
	if cmd.Code&cmdFlagExt != 0 {
		lba |= uint64(cmd.LBALow2)<<24 | uint64(cmd.LBAMid2)<<32 | uint64(cmd.LBAHigh2)<<40
		count |= int(cmd.Count2) << 8
	} else {
		lba |= uint64(cmd.Device&0xf) << 24
	}
	if count == 0 {
		count = 256
		if cmd.Code&cmdFlagExt != 0 {
			count = 65536
		}
	}
	return lba, count
}

// sendCommand selects the device and writes the task file image,
// leaving the device with DRQ asserted and channel interrupts
// disabled. The transfer that follows re-enables them.
func (h *Host) sendCommand(id DeviceID, cmd *Command) error {
	base, control, ok := h.channel(id)
	if !ok {
		return ErrInvalidDeviceID
	}

	// Run the command with device interrupts off; completion is
	// observed by polling.
	h.ports.Out8(control+regDevControl, devControlHD15|devControlNIEN)

	if _, err := h.waitNotBusy(base); err != nil {
		return err
	}

	newdh := cmd.Device &^ devHeadDev1
	if id.Slave() {
		newdh |= devHeadDev1
	} else {
		newdh |= devHeadDev0
	}
	olddh := h.ports.In8(base + regDevHead)
	h.ports.Out8(base+regDevHead, newdh)
	if (olddh^newdh)&(1<<4) != 0 {
		// Device change - wait for the newly selected device to
		// release BSY.
		if _, err := h.waitNotBusy(base); err != nil {
			return err
		}
	}

	if cmd.Code&cmdFlagExt != 0 {
		h.ports.Out8(base+regFeature, 0x00)
		h.ports.Out8(base+regSecCount, cmd.Count2)
		h.ports.Out8(base+regLBALow, cmd.LBALow2)
		h.ports.Out8(base+regLBAMid, cmd.LBAMid2)
		h.ports.Out8(base+regLBAHigh, cmd.LBAHigh2)
	}
	h.ports.Out8(base+regFeature, cmd.Feature)
	h.ports.Out8(base+regSecCount, cmd.Count)
	h.ports.Out8(base+regLBALow, cmd.LBALow)
	h.ports.Out8(base+regLBAMid, cmd.LBAMid)
	h.ports.Out8(base+regLBAHigh, cmd.LBAHigh)
	h.ports.Out8(base+regCommand, cmd.Code)

	status, err := h.ndelayWaitNotBusy(base)
	if err != nil {
		return err
	}

	if status&statusERR != 0 {
		h.log.WithFields(map[string]interface{}{
			"status": status,
			"error":  h.ports.In8(base + regError),
		}).Debug("command failed")
		return xerrors.Errorf("cannot execute command %#02x: %w", cmd.Code, ErrDeviceError)
	}
	if status&statusDRQ == 0 {
		h.log.WithField("status", status).Debug("DRQ not set")
		return xerrors.Errorf("cannot execute command %#02x: %w", cmd.Code, ErrNoDataRequest)
	}

	return nil
}

// Reset pulses software reset on the channel the device sits on and
// waits for the device to come back. For the slave the device
// selection is confirmed by reading it back, re-issuing the select
// until it sticks.
func (h *Host) Reset(id DeviceID) error {
	base, control, ok := h.channel(id)
	if !ok {
		return ErrInvalidDeviceID
	}

	h.log.WithField("device", id.String()).Debug("reset")

	// Pulse SRST.
	h.ports.Out8(control+regDevControl, devControlHD15|devControlNIEN|devControlSRST)
	h.clock.Sleep(5 * time.Microsecond)
	h.ports.Out8(control+regDevControl, devControlHD15|devControlNIEN)
	h.clock.Sleep(2 * time.Millisecond)

	err := h.resetWait(id, base)

	// Re-enable interrupts.
	h.ports.Out8(control+regDevControl, devControlHD15)
	return err
}

func (h *Host) resetWait(id DeviceID, base uint16) error {
	if _, err := h.waitNotBusy(base); err != nil {
		return err
	}

	if id.Slave() {
		deadline := h.clock.Now() + ideTimeout
		for {
			h.ports.Out8(base+regDevHead, devHeadDev1)
			if _, err := h.waitNotBusy(base); err != nil {
				return err
			}
			if h.ports.In8(base+regDevHead) == devHeadDev1 {
				break
			}
			// The select request didn't take effect - retry.
			if h.clock.Now() >= deadline {
				h.log.Warn("slave select time out after reset")
				return ErrTimeout
			}
		}
	}

	// On a user requested reset of an ATA device, wait for RDY too.
	if h.devices[id].Type == TypeATA {
		if _, err := h.waitReady(base); err != nil {
			return err
		}
	}
	return nil
}
