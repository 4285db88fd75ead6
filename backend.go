// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/canonical/go-atapio/fdpt"
)

// PortIO provides access to the controller's I/O register space. The
// linux subpackage supplies an implementation backed by /dev/port;
// firmware environments supply their own.
//
// Reads from a port with no device behind it are expected to return
// all-ones (floating bus) rather than fail.
type PortIO interface {
	In8(port uint16) uint8
	Out8(port uint16, val uint8)
	In16(port uint16) uint16
	Out16(port uint16, val uint16)
	In32(port uint16) uint32
	Out32(port uint16, val uint32)
}

// Clock is the monotonic time source used for timeout computation and
// settling delays. Now is relative to an arbitrary epoch. Sleep may
// busy-wait: pre-boot environments have no scheduler to yield to.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// NVRAM gives access to the platform's non-volatile configuration
// registers. It is only consulted for the geometry translation
// policy; hosts without one fall back to a heuristic.
type NVRAM interface {
	ReadRegister(reg uint8) uint8
}

// HostParams carries the collaborators a Host needs. Ports and Clock
// are mandatory.
type HostParams struct {
	Ports PortIO
	Clock Clock

	// Channels lists the controller channels found by bus
	// enumeration, in detection order.
	Channels []ChannelConfig

	// NVRAM, when non-nil, supplies the per-device geometry
	// translation policy. When nil the policy is chosen
	// heuristically from the physical geometry.
	NVRAM NVRAM

	// OnHardDisk, when non-nil, is invoked once for each hard disk
	// that detection identifies, so the platform can offer it as a
	// boot device.
	OnHardDisk func(id DeviceID, model string)

	// Logger receives diagnostic messages. Logging is best-effort
	// and never affects control flow. When nil, messages are
	// discarded.
	Logger logrus.FieldLogger
}

// Host owns the state of all ATA channels and devices. All operations
// are synchronous and run to completion on the caller's context;
// concurrent callers must serialize access themselves as two devices
// on a channel share one register group.
type Host struct {
	ports PortIO
	clock Clock
	nvram NVRAM
	log   logrus.FieldLogger

	channels   []ChannelConfig
	devices    [MaxDevices]Device
	onHardDisk func(id DeviceID, model string)

	hdMap   [MaxDevices]DeviceID
	cdMap   [MaxDevices]DeviceID
	hdCount int
	cdCount int

	tables [maxDiskTables]*fdpt.Table
}

// NewHost constructs a Host over the supplied channels. No hardware
// access happens until Detect or one of the I/O operations is called.
func NewHost(params *HostParams) *Host {
	if params.Ports == nil || params.Clock == nil {
		panic("atapio: HostParams must supply Ports and Clock")
	}

	channels := params.Channels
	if len(channels) > MaxDevices/2 {
		channels = channels[:MaxDevices/2]
	}

	log := params.Logger
	if log == nil {
		log = discardLogger()
	}

	h := &Host{
		ports:      params.Ports,
		clock:      params.Clock,
		nvram:      params.NVRAM,
		log:        log,
		channels:   channels,
		onHardDisk: params.OnHardDisk}
	for i := range h.hdMap {
		h.hdMap[i] = MaxDevices
		h.cdMap[i] = MaxDevices
	}
	return h
}

// channel returns the port bases for the channel a device sits on.
func (h *Host) channel(id DeviceID) (base, control uint16, ok bool) {
	c := id.Channel()
	if id < 0 || c >= len(h.channels) {
		return 0, 0, false
	}
	return h.channels[c].Base, h.channels[c].Control, true
}

// Device returns the record for the given slot. The returned pointer
// stays valid for the lifetime of the host; the record is only
// mutated by Detect.
func (h *Host) Device(id DeviceID) (*Device, error) {
	if id < 0 || id >= MaxDevices {
		return nil, ErrInvalidDeviceID
	}
	if h.devices[id].Type == TypeUnknown {
		return nil, ErrNoDevice
	}
	return &h.devices[id], nil
}

// HardDisks returns the number of registered hard disks.
func (h *Host) HardDisks() int { return h.hdCount }

// CDROMs returns the number of registered optical drives.
func (h *Host) CDROMs() int { return h.cdCount }

// HardDisk resolves a sequential hard disk number to its device slot.
func (h *Host) HardDisk(n int) (DeviceID, error) {
	if n < 0 || n >= MaxDevices || h.hdMap[n] == MaxDevices {
		return 0, ErrNoDevice
	}
	return h.hdMap[n], nil
}

// CDROM resolves a sequential optical drive number to its device slot.
func (h *Host) CDROM(n int) (DeviceID, error) {
	if n < 0 || n >= MaxDevices || h.cdMap[n] == MaxDevices {
		return 0, ErrNoDevice
	}
	return h.cdMap[n], nil
}
