// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

// Package linux supplies host backends for atapio on Linux: port I/O
// through the /dev/port device and a monotonic clock. It exists for
// bring-up and diagnostics from a running system; firmware
// environments provide their own backends.
package linux

import (
	"github.com/u-root/u-root/pkg/memio"

	"github.com/canonical/go-atapio"
)

var (
	portIn  = memio.In
	portOut = memio.Out
)

// PortIO accesses I/O ports through /dev/port. Reads that fail are
// reported as all-ones, matching what a floating bus returns, and the
// first error is latched for later inspection.
type PortIO struct {
	err error
}

// NewPortIO returns a PortIO. Access to /dev/port requires
// CAP_SYS_RAWIO.
func NewPortIO() *PortIO {
	return new(PortIO)
}

// Err returns the first port access error encountered, if any.
func (p *PortIO) Err() error { return p.err }

func (p *PortIO) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *PortIO) In8(port uint16) uint8 {
	var v memio.Uint8
	if err := portIn(port, &v); err != nil {
		p.fail(err)
		return 0xff
	}
	return uint8(v)
}

func (p *PortIO) Out8(port uint16, val uint8) {
	v := memio.Uint8(val)
	if err := portOut(port, &v); err != nil {
		p.fail(err)
	}
}

func (p *PortIO) In16(port uint16) uint16 {
	var v memio.Uint16
	if err := portIn(port, &v); err != nil {
		p.fail(err)
		return 0xffff
	}
	return uint16(v)
}

func (p *PortIO) Out16(port uint16, val uint16) {
	v := memio.Uint16(val)
	if err := portOut(port, &v); err != nil {
		p.fail(err)
	}
}

func (p *PortIO) In32(port uint16) uint32 {
	var v memio.Uint32
	if err := portIn(port, &v); err != nil {
		p.fail(err)
		return 0xffffffff
	}
	return uint32(v)
}

func (p *PortIO) Out32(port uint16, val uint32) {
	v := memio.Uint32(val)
	if err := portOut(port, &v); err != nil {
		p.fail(err)
	}
}

var _ atapio.PortIO = (*PortIO)(nil)
