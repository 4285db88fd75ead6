// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package linux

import (
	"github.com/u-root/u-root/pkg/memio"
)

// MockPortIO replaces the memio backed port accessors, returning a
// function to restore them.
func MockPortIO(in, out func(uint16, memio.UintN) error) (restore func()) {
	origIn := portIn
	origOut := portOut
	portIn = in
	portOut = out
	return func() {
		portIn = origIn
		portOut = origOut
	}
}
