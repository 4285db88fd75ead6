// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio_test

import (
	. "gopkg.in/check.v1"

	. "github.com/canonical/go-atapio"
)

type geometrySuite struct{}

var _ = Suite(&geometrySuite{})

type testNVRAM map[uint8]uint8

func (n testNVRAM) ReadRegister(reg uint8) uint8 { return n[reg] }

func (s *geometrySuite) TestChooseTranslationNone(c *C) {
	h := newTestHost(nil, &testChannel{base: 0x1f0, control: 0x3f0})
	for _, g := range []CHS{
		{Cylinders: 100, Heads: 4, SectorsPerTrack: 17},
		{Cylinders: 1024, Heads: 16, SectorsPerTrack: 63},
		{Cylinders: 1, Heads: 1, SectorsPerTrack: 1},
	} {
		c.Check(h.ChooseTranslation(0, g), Equals, TranslationNone)
	}
}

func (s *geometrySuite) TestChooseTranslationLarge(c *C) {
	h := newTestHost(nil, &testChannel{base: 0x1f0, control: 0x3f0})
	c.Check(h.ChooseTranslation(0, CHS{Cylinders: 2048, Heads: 16, SectorsPerTrack: 63}), Equals, TranslationLarge)
	c.Check(h.ChooseTranslation(0, CHS{Cylinders: 8192, Heads: 16, SectorsPerTrack: 63}), Equals, TranslationLarge)
}

func (s *geometrySuite) TestChooseTranslationLBA(c *C) {
	h := newTestHost(nil, &testChannel{base: 0x1f0, control: 0x3f0})
	c.Check(h.ChooseTranslation(0, CHS{Cylinders: 16384, Heads: 16, SectorsPerTrack: 63}), Equals, TranslationLBA)
}

func (s *geometrySuite) TestChooseTranslationFromNVRAM(c *C) {
	// Two bits per device starting at register 0x39: device 0 gets
	// LBA, device 1 r-echs, device 4 (third channel) large.
	nvram := testNVRAM{0x39: 0x01 | 0x03<<2, 0x3a: 0x02}
	h := newTestHost(&HostParams{NVRAM: nvram},
		&testChannel{base: 0x1f0, control: 0x3f0},
		&testChannel{base: 0x170, control: 0x370},
		&testChannel{base: 0x1e8, control: 0x3e8})

	big := CHS{Cylinders: 16384, Heads: 16, SectorsPerTrack: 63}
	c.Check(h.ChooseTranslation(0, big), Equals, TranslationLBA)
	c.Check(h.ChooseTranslation(1, big), Equals, TranslationRevisedECHS)
	c.Check(h.ChooseTranslation(4, big), Equals, TranslationLarge)
}

func (s *geometrySuite) TestTranslateNoneIsIdentity(c *C) {
	for _, g := range []CHS{
		{Cylinders: 100, Heads: 4, SectorsPerTrack: 17},
		{Cylinders: 1024, Heads: 16, SectorsPerTrack: 63},
		{Cylinders: 615, Heads: 6, SectorsPerTrack: 17},
	} {
		c.Check(TranslateGeometry(TranslationNone, g, uint64(g.Cylinders)*uint64(g.Heads)*uint64(g.SectorsPerTrack)), Equals, g)
	}
}

func (s *geometrySuite) TestTranslateLargeHalvesCylinders(c *C) {
	out := TranslateGeometry(TranslationLarge, CHS{Cylinders: 2048, Heads: 16, SectorsPerTrack: 63}, 0)
	c.Check(out, Equals, CHS{Cylinders: 1024, Heads: 32, SectorsPerTrack: 63})

	out = TranslateGeometry(TranslationLarge, CHS{Cylinders: 8192, Heads: 16, SectorsPerTrack: 63}, 0)
	c.Check(out, Equals, CHS{Cylinders: 1024, Heads: 128, SectorsPerTrack: 63})
}

func (s *geometrySuite) TestTranslateCylinderLimitAlwaysHolds(c *C) {
	for _, policy := range []TranslationPolicy{TranslationLarge, TranslationRevisedECHS} {
		for cylinders := uint32(1); cylinders <= 65535; cylinders += 1021 {
			for _, heads := range []uint16{1, 8, 15, 16} {
				pchs := CHS{Cylinders: uint16(cylinders), Heads: heads, SectorsPerTrack: 63}
				out := TranslateGeometry(policy, pchs, 0)
				if out.Cylinders > 1024 {
					c.Fatalf("policy %v translated %v to %v", policy, pchs, out)
				}
			}
		}
	}
}

func (s *geometrySuite) TestTranslateLBAExactCapacity(c *C) {
	out := TranslateGeometry(TranslationLBA, CHS{}, 63*255*1024)
	c.Check(out, Equals, CHS{Cylinders: 1024, Heads: 255, SectorsPerTrack: 63})

	out = TranslateGeometry(TranslationLBA, CHS{}, 63*255*1024+1)
	c.Check(out, Equals, CHS{Cylinders: 1024, Heads: 255, SectorsPerTrack: 63})
}

func (s *geometrySuite) TestTranslateLBAHeadLadder(c *C) {
	for _, data := range []struct {
		sectors uint64
		heads   uint16
	}{
		{16 * 63 * 1024, 16},
		{16*63*1024 + 63*1024, 32},
		{32 * 63 * 1024, 32},
		{64 * 63 * 1024, 64},
		{128 * 63 * 1024, 128},
		{200 * 63 * 1024, 255},
	} {
		out := TranslateGeometry(TranslationLBA, CHS{}, data.sectors)
		c.Check(out.Heads, Equals, data.heads, Commentf("sectors=%d", data.sectors))
		c.Check(out.SectorsPerTrack, Equals, uint16(63))
		if out.Cylinders > 1024 {
			c.Errorf("sectors=%d gave %d cylinders", data.sectors, out.Cylinders)
		}
	}
}

func (s *geometrySuite) TestTranslateRevisedECHSClampsCylinders(c *C) {
	// 61440 cylinders must be clipped to 61439 before the 16/15
	// rescale so the 16-bit cylinder count can't wrap: 61439*16/15 is
	// 65534, one step below the overflow point.
	out := TranslateGeometry(TranslationRevisedECHS, CHS{Cylinders: 61440, Heads: 16, SectorsPerTrack: 63}, 0)
	c.Check(out.Cylinders, Equals, uint16(1024))
	c.Check(out.Heads, Equals, uint16(240))
	c.Check(out.SectorsPerTrack, Equals, uint16(63))
}

func (s *geometrySuite) TestTranslateRevisedECHSRescale(c *C) {
	// 2048/16/63 becomes 2184 cylinders of 15 heads, then the shared
	// halving loop brings it under the limit.
	out := TranslateGeometry(TranslationRevisedECHS, CHS{Cylinders: 2048, Heads: 16, SectorsPerTrack: 63}, 0)
	c.Check(out, Equals, CHS{Cylinders: 546, Heads: 60, SectorsPerTrack: 63})
}
