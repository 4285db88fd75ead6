// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// sendPacket issues a PACKET command and writes the 12-byte command
// packet to the data register. blockSize is advertised to the device
// through the byte count limit in LBA mid/high. On success the device
// has DRQ asserted for the data phase.
func (h *Host) sendPacket(id DeviceID, packet []byte, blockSize int) error {
	if len(packet) != atapiPacketLen {
		return xerrors.Errorf("invalid packet length %d", len(packet))
	}
	base, control, ok := h.channel(id)
	if !ok {
		return ErrInvalidDeviceID
	}

	cmd := &Command{
		LBAMid:  uint8(blockSize),
		LBAHigh: uint8(blockSize >> 8),
		Code:    CmdPacket}
	if err := h.sendCommand(id, cmd); err != nil {
		return err
	}

	for i := 0; i < len(packet); i += 2 {
		h.ports.Out16(base+regData, binary.LittleEndian.Uint16(packet[i:]))
	}

	status, err := h.pauseWaitNotBusy(base, control)
	if err != nil {
		return err
	}
	if status&statusERR != 0 {
		h.log.WithFields(map[string]interface{}{
			"status": status,
			"error":  h.ports.In8(base + regError),
		}).Debug("packet command failed")
		return xerrors.Errorf("cannot execute packet command %#02x: %w", packet[0], ErrDeviceError)
	}
	if status&statusDRQ == 0 {
		h.log.WithField("status", status).Debug("DRQ not set after packet")
		return xerrors.Errorf("cannot execute packet command %#02x: %w", packet[0], ErrNoDataRequest)
	}

	return nil
}

// PacketCommand sends an arbitrary 12-byte ATAPI command packet and
// transfers a single data block of the given length into op's buffer.
// It is meant for short non-read transactions such as mode sense or
// read capacity.
func (h *Host) PacketCommand(id DeviceID, packet []byte, length int, buf []byte) error {
	if err := h.sendPacket(id, packet, length); err != nil {
		return err
	}
	op := &DiskOp{Device: id, Buffer: buf}
	return h.transfer(op, false, 1, length, 0, 0)
}

// read10Packet builds the SCSI READ(10) packet for the given physical
// block range.
func read10Packet(lba uint64, count int) []byte {
	packet := make([]byte, atapiPacketLen)
	packet[0] = scsiCmdRead10
	binary.BigEndian.PutUint32(packet[2:], uint32(lba))
	binary.BigEndian.PutUint16(packet[7:], uint16(count))
	return packet
}

// ReadCD reads op.Count physical 2048-byte sectors from an optical
// drive starting at op.LBA.
func (h *Host) ReadCD(op *DiskOp) error {
	if err := h.sendPacket(op.Device, read10Packet(op.LBA, op.Count), CDSectorSize); err != nil {
		return err
	}
	return h.transfer(op, false, op.Count, CDSectorSize, 0, 0)
}

// ReadCDEmulated reads from an optical drive with op.LBA and op.Count
// expressed in 512-byte sectors, as used when a CD image is presented
// as a hard disk. The enclosing 2048-byte sector range is read and
// the surplus at either end discarded. On success op.Transferred
// holds the number of 512-byte sectors delivered; on failure it is
// zeroed as partial physical blocks carry no usable small sectors.
func (h *Host) ReadCDEmulated(op *DiskOp) error {
	vlba := op.LBA
	vcount := op.Count
	lba := vlba / 4
	velba := vlba + uint64(vcount) - 1
	elba := velba / 4
	count := int(elba-lba) + 1
	before := int(vlba % 4)
	after := 3 - int(velba%4)

	h.log.WithFields(map[string]interface{}{
		"device": op.Device.String(),
		"vlba":   vlba,
		"vcount": vcount,
		"lba":    lba,
		"count":  count,
		"before": before,
		"after":  after,
	}).Debug("emulated cdrom read")

	if err := h.sendPacket(op.Device, read10Packet(lba, count), CDSectorSize); err != nil {
		return err
	}

	if err := h.transfer(op, false, count, CDSectorSize, before*SectorSize, after*SectorSize); err != nil {
		op.Transferred = 0
		return err
	}
	op.Transferred = count*4 - before - after
	return nil
}
