// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

// Package fdpt provides the legacy Fixed Disk Parameter Table
// structure that real mode consumers locate through the BIOS data
// area. When the logical geometry differs from the physical one the
// table carries the Phoenix translated-table extension, marked by a
// signature byte and protected by a checksum.
package fdpt

import (
	"bytes"
	"encoding/binary"
	"io"
)

// TranslatedSignature marks a table carrying the translated geometry
// extension.
const TranslatedSignature = 0xa0

// Table is the 16-byte Fixed Disk Parameter Table.
type Table struct {
	Cylinders           uint16
	Heads               uint8
	Signature           uint8
	PhysSectorsPerTrack uint8
	Precompensation     uint16
	Reserved            uint8
	DriveControl        uint8
	PhysCylinders       uint16
	PhysHeads           uint8
	LandingZone         uint16
	SectorsPerTrack     uint8
	Checksum            uint8
}

// New builds the table for a disk with the given logical and
// physical geometries. The translated extension fields are only
// filled in when the two differ.
func New(cylinders uint16, heads, spt uint8, physCylinders uint16, physHeads, physSPT uint8) *Table {
	t := &Table{
		Cylinders:       cylinders,
		Heads:           heads,
		Precompensation: 0xffff,
		DriveControl:    driveControl(physHeads),
		LandingZone:     physCylinders,
		SectorsPerTrack: spt}

	if cylinders == physCylinders && heads == physHeads && spt == physSPT {
		// No translation in use - a standard table is enough.
		return t
	}

	t.Signature = TranslatedSignature
	t.PhysCylinders = physCylinders
	t.PhysHeads = physHeads
	t.PhysSectorsPerTrack = physSPT
	t.Checksum = t.ComputeChecksum()
	return t
}

func driveControl(physHeads uint8) uint8 {
	c := uint8(0xc0)
	if physHeads > 8 {
		c |= 1 << 3
	}
	return c
}

// ComputeChecksum returns the two's complement of the sum of the
// serialized table bytes excluding the checksum byte itself.
func (t *Table) ComputeChecksum() uint8 {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, t)
	b := buf.Bytes()

	var sum uint8
	for _, v := range b[:len(b)-1] {
		sum += v
	}
	return -sum
}

// Translated reports whether the table carries the translated
// geometry extension.
func (t *Table) Translated() bool { return t.Signature == TranslatedSignature }

// WriteTo serializes the table to w in its in-memory layout.
func (t *Table) WriteTo(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, t)
}

// ReadTable reads a serialized table from r.
func ReadTable(r io.Reader) (*Table, error) {
	t := new(Table)
	if err := binary.Read(r, binary.LittleEndian, t); err != nil {
		return nil, err
	}
	return t, nil
}
