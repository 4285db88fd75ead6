// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"github.com/canonical/go-atapio/fdpt"
)

// probeSlot checks whether anything responds on a channel/device
// slot by writing a signature pattern to the sector count and LBA low
// registers and reading it back.
func (h *Host) probeSlot(id DeviceID, base uint16) bool {
	if id.Slave() {
		h.ports.Out8(base+regDevHead, devHeadDev1)
	} else {
		h.ports.Out8(base+regDevHead, devHeadDev0)
	}

	h.ports.Out8(base+regSecCount, 0x55)
	h.ports.Out8(base+regLBALow, 0xaa)
	h.ports.Out8(base+regSecCount, 0xaa)
	h.ports.Out8(base+regLBALow, 0x55)
	h.ports.Out8(base+regSecCount, 0x55)
	h.ports.Out8(base+regLBALow, 0xaa)

	sc := h.ports.In8(base + regSecCount)
	sn := h.ports.In8(base + regLBALow)
	h.log.WithFields(map[string]interface{}{
		"device": id.String(),
		"sc":     sc,
		"sn":     sn,
	}).Debug("slot probe")
	return sc == 0x55 && sn == 0xaa
}

// initATAPI tries to identify the device in a slot as a packet
// device and registers it as an optical drive on success.
func (h *Host) initATAPI(id DeviceID) error {
	data, err := h.identify(id, CmdIdentifyPacket)
	if err != nil {
		return err
	}

	dev := &h.devices[id]
	h.extractIdentify(dev, data)
	dev.Type = TypeATAPI
	dev.Class = data.Class()
	dev.BlockSize = CDSectorSize

	h.cdMap[h.cdCount] = id
	h.cdCount++

	h.log.Infof("%s: %s ATAPI-%d %s", id, dev.Model, dev.Version, dev.Class)

	return nil
}

// initATA identifies the device in a slot as an ATA hard disk,
// translates its geometry and registers it.
func (h *Host) initATA(id DeviceID) error {
	data, err := h.identify(id, CmdIdentifyDevice)
	if err != nil {
		return err
	}

	dev := &h.devices[id]
	h.extractIdentify(dev, data)
	dev.Type = TypeATA
	dev.Class = ClassHardDisk
	dev.BlockSize = SectorSize
	dev.PCHS = data.Geometry()
	dev.LBA48 = data.LBA48()
	dev.Sectors = data.Sectors()

	h.setupTranslation(id)

	sizeMiB := dev.Sectors >> 11
	if sizeMiB < 1<<16 {
		h.log.Infof("%s: %s ATA-%d Hard-Disk (%d MiBytes)", id, dev.Model, dev.Version, sizeMiB)
	} else {
		h.log.Infof("%s: %s ATA-%d Hard-Disk (%d GiBytes)", id, dev.Model, dev.Version, sizeMiB>>10)
	}

	if h.onHardDisk != nil {
		h.onHardDisk(id, dev.Model)
	} else {
		h.MapHardDisk(id)
	}
	return nil
}

// extractIdentify copies the fields common to ATA and ATAPI devices
// out of the identify data.
func (h *Host) extractIdentify(dev *Device, data *IdentifyData) {
	dev.Model = data.Model()
	dev.Version = data.Version()
	dev.Removable = data.Removable()
	dev.Mode = data.TransferMode()
}

// Detect scans every configured channel/device slot for responding
// drives and populates the device table and identifier maps. A slot
// that fails any stage of identification is left empty; failures
// never abort the scan.
func (h *Host) Detect() {
	lastReset := DeviceID(-2)
	for id := DeviceID(0); id < MaxDevices; id++ {
		base, _, ok := h.channel(id)
		if !ok || base == 0 {
			break
		}

		if !h.probeSlot(id, base) {
			continue
		}

		if id.Slave() && id == lastReset+1 {
			// The channel was just reset for the master - don't
			// reset it again.
		} else {
			h.Reset(id)
			lastReset = id
		}

		if err := h.initATAPI(id); err == nil {
			continue
		}

		if st := h.ports.In8(base + regStatus); st == 0 {
			// Status not set - can't be a valid drive.
			continue
		}

		if _, err := h.waitReady(base); err != nil {
			continue
		}

		if err := h.initATA(id); err != nil {
			h.log.WithField("device", id.String()).Debug("ATA identification failed")
		}
	}
}

const maxDiskTables = 2

// MapHardDisk assigns the next sequential hard disk number to a
// detected device. For the first two disks a legacy disk parameter
// table is produced, retrievable through DiskTable.
func (h *Host) MapHardDisk(id DeviceID) error {
	dev, err := h.Device(id)
	if err != nil {
		return err
	}

	if h.hdCount >= MaxDevices {
		return ErrInvalidDeviceID
	}

	slot := h.hdCount
	h.log.WithFields(map[string]interface{}{
		"device": id.String(),
		"disk":   slot,
	}).Debug("mapping hard disk")
	h.hdMap[slot] = id
	h.hdCount++

	if slot < maxDiskTables {
		h.tables[slot] = fdpt.New(dev.LCHS.Cylinders, uint8(dev.LCHS.Heads), uint8(dev.LCHS.SectorsPerTrack),
			dev.PCHS.Cylinders, uint8(dev.PCHS.Heads), uint8(dev.PCHS.SectorsPerTrack))
	}
	return nil
}

// DiskTable returns the legacy disk parameter table built for one of
// the first two mapped hard disks, or nil if that slot wasn't
// mapped.
func (h *Host) DiskTable(slot int) *fdpt.Table {
	if slot < 0 || slot >= maxDiskTables {
		return nil
	}
	return h.tables[slot]
}
