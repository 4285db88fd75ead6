// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import "time"

// Task file register offsets from the command block base address.
const (
	regData     = 0 // 16 or 32-bit data window
	regError    = 1 // read
	regFeature  = 1 // write
	regSecCount = 2
	regLBALow   = 3
	regLBAMid   = 4
	regLBAHigh  = 5
	regDevHead  = 6
	regStatus   = 7 // read
	regCommand  = 7 // write
)

// Register offsets from the control block base address.
const (
	regAltStatus  = 6 // read
	regDevControl = 6 // write
)

// Status register bits.
const (
	statusBSY  = 0x80 // device busy
	statusRDY  = 0x40 // device ready
	statusDF   = 0x20 // device fault
	statusDSC  = 0x10
	statusDRQ  = 0x08 // data request
	statusCORR = 0x04
	statusIDX  = 0x02
	statusERR  = 0x01 // command error
)

// Device/head register bits.
const (
	devHeadDev0 = 0xa0
	devHeadDev1 = 0xb0
	devHeadLBA  = 0x40
)

// Device control register bits.
const (
	devControlHD15 = 0x08 // bit 3 is reserved-set on legacy controllers
	devControlSRST = 0x04 // software reset
	devControlNIEN = 0x02 // interrupt disable
)

// Command opcodes.
const (
	CmdReadSectors        = 0x20
	CmdWriteSectors       = 0x30
	CmdPacket             = 0xa0
	CmdIdentifyPacket     = 0xa1
	CmdIdentifyDevice     = 0xec

	// cmdFlagExt selects the 48-bit form of a read/write opcode
	// (0x20 -> 0x24, 0x30 -> 0x34).
	cmdFlagExt = 0x04
)

// scsiCmdRead10 is the SCSI READ(10) opcode carried in ATAPI packets
// for optical media reads.
const scsiCmdRead10 = 0x28

const (
	// SectorSize is the native block size of ATA hard disks.
	SectorSize = 512

	// CDSectorSize is the native block size of ATAPI optical media.
	CDSectorSize = 2048

	atapiPacketLen = 12
)

// ideTimeout is the per-operation polling ceiling. Spun-down media can
// take tens of seconds to respond to the first command.
const ideTimeout = 32 * time.Second

// nvramDiskTranslationFlag is the NVRAM register holding the
// per-device geometry translation policy, two bits per device,
// starting with this register for devices 0-3.
const nvramDiskTranslationFlag = 0x39
