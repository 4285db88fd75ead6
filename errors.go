// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package atapio

import (
	"errors"
)

var (
	// ErrTimeout is returned when a device doesn't reach the awaited
	// status within the polling ceiling. It usually means the slot is
	// empty or the device has hung.
	ErrTimeout = errors.New("timed out waiting for device status")

	// ErrDeviceError is returned when a device completes a command
	// with the error bit set in its status register.
	ErrDeviceError = errors.New("device reported a command error")

	// ErrNoDataRequest is returned when a device accepts a command
	// but never asserts DRQ, which indicates a protocol violation or
	// an unsupported command.
	ErrNoDataRequest = errors.New("device did not assert a data request")

	// ErrShortTransfer is returned when a device stops supplying or
	// accepting data before all requested blocks have moved.
	ErrShortTransfer = errors.New("device ended the transfer early")

	// ErrTrailingStatus is returned when the status register isn't
	// clean after the final block of a transfer.
	ErrTrailingStatus = errors.New("unexpected device status after transfer")

	// ErrNoDevice is returned when an operation targets a slot that
	// detection left empty.
	ErrNoDevice = errors.New("no device in the requested slot")

	// ErrInvalidDeviceID is returned when a device id is outside the
	// supported slot range.
	ErrInvalidDeviceID = errors.New("device id out of range")
)
