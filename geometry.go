// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

// chooseTranslation picks the geometry translation policy for a
// device. When the platform supplies an NVRAM the policy is read from
// the disk translation registers, two bits per device. Otherwise a
// heuristic based on the physical geometry is applied.
func (h *Host) chooseTranslation(id DeviceID, pchs CHS) TranslationPolicy {
	if h.nvram != nil {
		t := h.nvram.ReadRegister(nvramDiskTranslationFlag + uint8(id.Channel())/2)
		t >>= 2 * (uint8(id) % 4)
		return TranslationPolicy(t & 0x03)
	}

	if pchs.fitsLegacyLimits() {
		return TranslationNone
	}
	if uint32(pchs.Cylinders)*uint32(pchs.Heads) <= 131072 {
		return TranslationLarge
	}
	return TranslationLBA
}

// translateGeometry converts a physical geometry into the logical
// geometry presented to legacy consumers. The translation runs as a
// policy specific pre-adjustment followed by the shared
// cylinder-halving loop, and the result is always clipped to 1024
// cylinders.
func translateGeometry(policy TranslationPolicy, pchs CHS, sectors uint64) CHS {
	cylinders := pchs.Cylinders
	heads := pchs.Heads
	spt := pchs.SectorsPerTrack

	switch policy {
	case TranslationNone:

	case TranslationLBA:
		spt = 63
		if sectors > 63*255*1024 {
			heads = 255
			cylinders = 1024
			break
		}
		sect := uint32(sectors) / 63
		switch h := sect / 1024; {
		case h > 128:
			heads = 255
		case h > 64:
			heads = 128
		case h > 32:
			heads = 64
		case h > 16:
			heads = 32
		default:
			heads = 16
		}
		cylinders = uint16(sect / uint32(heads))

	case TranslationRevisedECHS, TranslationLarge:
		if policy == TranslationRevisedECHS && heads == 16 {
			// Clip first so the 16/15 rescale can't overflow the
			// 16-bit cylinder count.
			if cylinders > 61439 {
				cylinders = 61439
			}
			heads = 15
			cylinders = uint16(uint32(cylinders) * 16 / 15)
		}

		for cylinders > 1024 {
			cylinders >>= 1
			heads <<= 1

			if heads > 127 {
				break
			}
		}
	}

	if cylinders > 1024 {
		cylinders = 1024
	}

	return CHS{Cylinders: cylinders, Heads: heads, SectorsPerTrack: spt}
}

// setupTranslation chooses and applies the translation policy for a
// freshly identified hard disk, filling in its logical geometry.
func (h *Host) setupTranslation(id DeviceID) {
	dev := &h.devices[id]
	dev.Translation = h.chooseTranslation(id, dev.PCHS)
	dev.LCHS = translateGeometry(dev.Translation, dev.PCHS, dev.Sectors)

	h.log.WithFields(map[string]interface{}{
		"device":      id.String(),
		"pchs":        dev.PCHS.String(),
		"translation": dev.Translation.String(),
		"lchs":        dev.LCHS.String(),
	}).Debug("geometry translation")
}
