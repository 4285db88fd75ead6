// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"fmt"
)

// MaxDevices is the number of channel/device slots supported by a
// host: four channels with a master and a slave each. It is also the
// sentinel value stored in unused identifier map slots.
const MaxDevices = 8

// DeviceID identifies a channel/device slot. The value is
// channel*2 + slave and is stable across detection runs.
type DeviceID int

// Channel returns the index of the channel the device sits on.
func (id DeviceID) Channel() int { return int(id) / 2 }

// Slave indicates whether the device is the slave on its channel.
func (id DeviceID) Slave() bool { return int(id)%2 == 1 }

func (id DeviceID) String() string {
	return fmt.Sprintf("ata%d-%d", id.Channel(), int(id)%2)
}

// DeviceType describes the command protocol a device speaks.
type DeviceType uint8

const (
	TypeUnknown DeviceType = iota
	TypeATA
	TypeATAPI
)

func (t DeviceType) String() string {
	switch t {
	case TypeATA:
		return "ATA"
	case TypeATAPI:
		return "ATAPI"
	default:
		return "unknown"
	}
}

// DeviceClass describes what kind of device sits behind the protocol.
// For ATAPI devices this is the peripheral device type from word 0 of
// the identify data.
type DeviceClass uint8

const (
	// ClassCDROM is the ATAPI peripheral device type for CD-ROM and
	// DVD-ROM drives.
	ClassCDROM DeviceClass = 0x05

	// ClassHardDisk is assigned to ATA devices, which don't carry a
	// peripheral device type.
	ClassHardDisk DeviceClass = 0xff
)

func (c DeviceClass) String() string {
	switch c {
	case ClassCDROM:
		return "CD-Rom/DVD-Rom"
	case ClassHardDisk:
		return "Hard-Disk"
	default:
		return "Device"
	}
}

// TransferMode selects the width of accesses to the data register.
type TransferMode uint8

const (
	ModePIO16 TransferMode = iota
	ModePIO32
)

// TranslationPolicy selects how a physical disk geometry is converted
// to the logical geometry presented to legacy consumers. The numeric
// values match the two-bit NVRAM encoding.
type TranslationPolicy uint8

const (
	TranslationNone TranslationPolicy = iota
	TranslationLBA
	TranslationLarge
	TranslationRevisedECHS
)

func (p TranslationPolicy) String() string {
	switch p {
	case TranslationNone:
		return "none"
	case TranslationLBA:
		return "lba"
	case TranslationLarge:
		return "large"
	case TranslationRevisedECHS:
		return "r-echs"
	default:
		return fmt.Sprintf("%d", uint8(p))
	}
}

// CHS is a cylinder/head/sector geometry.
type CHS struct {
	Cylinders       uint16
	Heads           uint16
	SectorsPerTrack uint16
}

func (g CHS) String() string {
	return fmt.Sprintf("%d/%d/%d", g.Cylinders, g.Heads, g.SectorsPerTrack)
}

// fitsLegacyLimits indicates whether the geometry is directly
// addressable through the legacy CHS interface.
func (g CHS) fitsLegacyLimits() bool {
	return g.Cylinders <= 1024 && g.Heads <= 16 && g.SectorsPerTrack <= 63
}

// Device holds everything learned about one channel/device slot
// during detection. It is only written during detection and
// identification and is read-only afterwards.
type Device struct {
	Type      DeviceType
	Class     DeviceClass
	Removable bool
	Mode      TransferMode
	BlockSize int

	// Version is the highest ATA/ATAPI protocol revision the device
	// claims to support.
	Version uint8

	// Model is the device model string, byte-swapped into host order
	// and trimmed of trailing padding.
	Model string

	// PCHS is the geometry reported by the device, LCHS the
	// translated geometry presented to legacy consumers.
	PCHS        CHS
	LCHS        CHS
	Translation TranslationPolicy

	// Sectors is the total addressable sector count, taken from the
	// 48-bit identify field when LBA48 is set.
	Sectors uint64
	LBA48   bool
}

// ChannelConfig describes one controller channel as discovered by the
// platform's bus enumeration, which is outside the scope of this
// package.
type ChannelConfig struct {
	// Base is the command block base address (task file registers).
	Base uint16

	// Control is the control block base address (device control and
	// alternate status).
	Control uint16

	// IRQ is the interrupt line assigned to the channel. The polled
	// code paths never take interrupts but the line is recorded for
	// the platform's interrupt setup.
	IRQ uint8

	// BusAddr is the platform bus address of the owning controller.
	BusAddr uint32
}

// DiskOp describes one synchronous I/O request against a detected
// device. Transferred is updated incrementally as blocks complete, so
// a caller observing a failure knows how much of the request
// succeeded.
type DiskOp struct {
	Device  DeviceID
	Command uint8
	LBA     uint64
	Count   int
	Buffer  []byte

	// Transferred is the number of complete sectors moved so far.
	// For emulated small-sector CD reads it counts 512-byte sectors.
	Transferred int
}
