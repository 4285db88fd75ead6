// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio_test

import (
	. "gopkg.in/check.v1"

	. "github.com/canonical/go-atapio"
)

type transferSuite struct{}

var _ = Suite(&transferSuite{})

// makeTestDisk fills a disk image where every byte records its
// sector number, so misplaced reads are visible.
func makeTestDisk(sectors, sectorSize int) []byte {
	disk := make([]byte, sectors*sectorSize)
	for i := range disk {
		disk[i] = byte(i / sectorSize)
	}
	return disk
}

// attachedDisk wires a single ATA disk as the master of the primary
// channel and detects it.
func attachedDisk(c *C, dev *testDevice) *Host {
	ch := &testChannel{base: 0x1f0, control: 0x3f0}
	ch.devs[0] = dev
	h := newTestHost(nil, ch)
	h.Detect()
	c.Assert(h.HardDisks(), Equals, 1)
	return h
}

func testDisk(sectors int) *testDevice {
	return &testDevice{
		spec: identifySpec{
			model:     "TEST DISK",
			version:   7,
			cylinders: 16,
			heads:     4,
			spt:       32,
			sectors:   uint64(sectors)},
		disk: makeTestDisk(sectors, 512)}
}

func (s *transferSuite) TestReadSectors(c *C) {
	dev := testDisk(2048)
	h := attachedDisk(c, dev)

	op := &DiskOp{
		Device:  0,
		Command: CmdReadSectors,
		LBA:     5,
		Count:   3,
		Buffer:  make([]byte, 3*512)}
	c.Assert(h.DataCommand(op), IsNil)
	c.Check(op.Transferred, Equals, 3)

	for i, b := range op.Buffer {
		if b != byte(5+i/512) {
			c.Fatalf("byte %d is %#x, want %#x", i, b, byte(5+i/512))
		}
	}
}

func (s *transferSuite) TestReadSectorsPIO32(c *C) {
	dev := testDisk(2048)
	dev.spec.pio32 = true
	h := attachedDisk(c, dev)

	op := &DiskOp{
		Device:  0,
		Command: CmdReadSectors,
		LBA:     7,
		Count:   2,
		Buffer:  make([]byte, 2*512)}
	c.Assert(h.DataCommand(op), IsNil)
	c.Check(op.Buffer[0], Equals, byte(7))
	c.Check(op.Buffer[1023], Equals, byte(8))
}

func (s *transferSuite) TestWriteSectors(c *C) {
	dev := testDisk(2048)
	h := attachedDisk(c, dev)

	buf := make([]byte, 2*512)
	for i := range buf {
		buf[i] = 0xc7
	}
	op := &DiskOp{
		Device:  0,
		Command: CmdWriteSectors,
		LBA:     9,
		Count:   2,
		Buffer:  buf}
	c.Assert(h.DataCommand(op), IsNil)
	c.Check(op.Transferred, Equals, 2)
	c.Check(dev.writtenLBA, Equals, uint64(9))
	c.Check(dev.disk[9*512], Equals, byte(0xc7))
	c.Check(dev.disk[11*512-1], Equals, byte(0xc7))
	c.Check(dev.disk[11*512], Equals, byte(11))
}

func (s *transferSuite) TestShortTransferReportsProgress(c *C) {
	dev := testDisk(2048)
	dev.shortBlocks = 2
	h := attachedDisk(c, dev)

	op := &DiskOp{
		Device:  0,
		Command: CmdReadSectors,
		LBA:     0,
		Count:   4,
		Buffer:  make([]byte, 4*512)}
	err := h.DataCommand(op)
	c.Check(err, ErrorMatches, ".*: device ended the transfer early")

	// The caller can see how many complete blocks made it.
	c.Check(op.Transferred, Equals, 2)
}

func (s *transferSuite) TestTrailingStatusError(c *C) {
	dev := testDisk(2048)
	h := attachedDisk(c, dev)
	dev.trailingErr = true

	op := &DiskOp{
		Device:  0,
		Command: CmdReadSectors,
		LBA:     0,
		Count:   1,
		Buffer:  make([]byte, 512)}
	err := h.DataCommand(op)
	c.Check(err, ErrorMatches, ".*: unexpected device status after transfer")
	c.Check(op.Transferred, Equals, 1)
}

func (s *transferSuite) TestDataCommandOnEmptySlot(c *C) {
	ch := &testChannel{base: 0x1f0, control: 0x3f0}
	h := newTestHost(nil, ch)
	h.Detect()

	op := &DiskOp{
		Device:  0,
		Command: CmdReadSectors,
		Count:   1,
		Buffer:  make([]byte, 512)}
	err := h.DataCommand(op)
	c.Check(err, NotNil)
}
