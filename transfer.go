// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// discard reads and throws away the given number of bytes from the
// data register, using the device's transfer width.
func (h *Host) discard(mode TransferMode, base uint16, bytes int) {
	if mode == ModePIO32 {
		for i := 0; i < bytes/4; i++ {
			h.ports.In32(base + regData)
		}
	} else {
		for i := 0; i < bytes/2; i++ {
			h.ports.In16(base + regData)
		}
	}
}

func (h *Host) readData(mode TransferMode, base uint16, buf []byte) {
	if mode == ModePIO32 {
		for i := 0; i+4 <= len(buf); i += 4 {
			binary.LittleEndian.PutUint32(buf[i:], h.ports.In32(base+regData))
		}
	} else {
		for i := 0; i+2 <= len(buf); i += 2 {
			binary.LittleEndian.PutUint16(buf[i:], h.ports.In16(base+regData))
		}
	}
}

func (h *Host) writeData(mode TransferMode, base uint16, buf []byte) {
	if mode == ModePIO32 {
		for i := 0; i+4 <= len(buf); i += 4 {
			h.ports.Out32(base+regData, binary.LittleEndian.Uint32(buf[i:]))
		}
	} else {
		for i := 0; i+2 <= len(buf); i += 2 {
			h.ports.Out16(base+regData, binary.LittleEndian.Uint16(buf[i:]))
		}
	}
}

// transfer moves count blocks of blockSize bytes between the data
// register and op.Buffer. skipFirst bytes of the first block and
// skipLast bytes of the last block are read and discarded, which lets
// callers present a smaller logical sector size than the physical
// one. op.Transferred is bumped after each completed block.
func (h *Host) transfer(op *DiskOp, isWrite bool, count, blockSize, skipFirst, skipLast int) error {
	if op.Device < 0 || op.Device >= MaxDevices {
		return ErrInvalidDeviceID
	}
	base, control, ok := h.channel(op.Device)
	if !ok {
		return ErrInvalidDeviceID
	}
	// The zero value is PIO16, which is also what identification of a
	// not yet registered device runs at.
	mode := h.devices[op.Device].Mode

	var err error

	h.log.WithFields(map[string]interface{}{
		"device": op.Device.String(),
		"write":  isWrite,
		"count":  count,
		"bsize":  blockSize,
	}).Debug("transfer")

	op.Transferred = 0
	buf := op.Buffer

	var status uint8
	for current := 0; ; {
		bsize := blockSize
		if skipFirst > 0 && current == 0 {
			h.discard(mode, base, skipFirst)
			bsize -= skipFirst
		}
		if skipLast > 0 && current == count-1 {
			bsize -= skipLast
		}

		if isWrite {
			h.writeData(mode, base, buf[:bsize])
		} else {
			h.readData(mode, base, buf[:bsize])
		}
		buf = buf[bsize:]

		if skipLast > 0 && current == count-1 {
			h.discard(mode, base, skipLast)
		}

		status, err = h.pauseWaitNotBusy(base, control)
		if err != nil {
			return err
		}

		current++
		op.Transferred = current
		if current == count {
			break
		}
		if status&(statusBSY|statusDRQ|statusERR) != statusDRQ {
			h.log.WithField("status", status).Debug("transfer stalled with sectors left")
			return xerrors.Errorf("after block %d of %d: %w", current, count, ErrShortTransfer)
		}
	}

	status &= statusBSY | statusDF | statusDRQ | statusERR
	if !isWrite {
		// Some devices raise the fault bit spuriously on reads.
		status &^= statusDF
	}
	if status != 0 {
		h.log.WithField("status", status).Debug("transfer ended with dirty status")
		return xerrors.Errorf("status %#02x after final block: %w", status, ErrTrailingStatus)
	}

	// Re-enable interrupts.
	h.ports.Out8(control+regDevControl, devControlHD15)
	return nil
}

// DataCommand issues the read or write command described by op
// against a hard disk and performs the polled data transfer. On
// failure op.Transferred holds the number of sectors that completed.
func (h *Host) DataCommand(op *DiskOp) error {
	if err := h.sendCommand(op.Device, makeDataCommand(op)); err != nil {
		return err
	}
	isWrite := op.Command == CmdWriteSectors
	return h.transfer(op, isWrite, op.Count, SectorSize, 0, 0)
}
