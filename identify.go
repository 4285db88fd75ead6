// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/canonical/go-atapio/internal/ioerr"
)

// identifyWords is the number of 16-bit words in an identify data
// block.
const identifyWords = 256

const modelWordOffset = 27
const modelWords = 20

// IdentifyData is the decoded 512-byte response to the
// IDENTIFY DEVICE and IDENTIFY PACKET DEVICE commands.
type IdentifyData struct {
	words [identifyWords]uint16
}

// ReadIdentifyData decodes an identify data block from the supplied
// buffer.
func ReadIdentifyData(data []byte) (*IdentifyData, error) {
	out := new(IdentifyData)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &out.words); err != nil {
		return nil, ioerr.EOFUnexpected("cannot read identify data: %w", err)
	}
	return out, nil
}

// Word returns the identify word at the given offset.
func (d *IdentifyData) Word(n int) uint16 { return d.words[n] }

// Model returns the model string. The device stores it with the
// bytes of each word swapped; it is returned in natural order with
// trailing padding removed.
func (d *IdentifyData) Model() string {
	var b [modelWords * 2]byte
	for i := 0; i < modelWords; i++ {
		v := d.words[modelWordOffset+i]
		b[i*2] = byte(v >> 8)
		b[i*2+1] = byte(v)
	}
	return strings.TrimRight(string(b[:]), " \x00")
}

// Version returns the highest ATA/ATAPI revision the device reports
// support for, as the highest bit set in the major version word.
func (d *IdentifyData) Version() uint8 {
	v := d.words[80]
	for bit := 15; bit > 0; bit-- {
		if v&(1<<uint(bit)) != 0 {
			return uint8(bit)
		}
	}
	return 0
}

// Removable reports the removable media bit from the general
// configuration word.
func (d *IdentifyData) Removable() bool { return d.words[0]&0x80 != 0 }

// TransferMode reports whether the device handles 32-bit PIO data
// transfers.
func (d *IdentifyData) TransferMode() TransferMode {
	if d.words[48] != 0 {
		return ModePIO32
	}
	return ModePIO16
}

// Class returns the ATAPI peripheral device type from the general
// configuration word. Only meaningful for packet devices.
func (d *IdentifyData) Class() DeviceClass {
	return DeviceClass((d.words[0] >> 8) & 0x1f)
}

// Geometry returns the default physical CHS geometry words.
func (d *IdentifyData) Geometry() CHS {
	return CHS{
		Cylinders:       d.words[1],
		Heads:           d.words[3],
		SectorsPerTrack: d.words[6]}
}

// LBA48 reports whether the device supports the 48-bit address
// feature set.
func (d *IdentifyData) LBA48() bool { return d.words[83]&(1<<10) != 0 }

// Sectors returns the total addressable sector count: the 48-bit
// count when the device supports it, the 28-bit count otherwise.
func (d *IdentifyData) Sectors() uint64 {
	if d.LBA48() {
		return uint64(d.words[100]) | uint64(d.words[101])<<16 |
			uint64(d.words[102])<<32 | uint64(d.words[103])<<48
	}
	return uint64(d.words[60]) | uint64(d.words[61])<<16
}

// identify issues the given identify command against a slot and
// decodes the response.
func (h *Host) identify(id DeviceID, command uint8) (*IdentifyData, error) {
	buf := make([]byte, identifyWords*2)
	op := &DiskOp{
		Device:  id,
		Command: command,
		Count:   1,
		Buffer:  buf}
	if err := h.sendCommand(id, &Command{Count: 1, Code: command}); err != nil {
		return nil, err
	}
	if err := h.transfer(op, false, 1, len(buf), 0, 0); err != nil {
		return nil, err
	}
	return ReadIdentifyData(buf)
}
