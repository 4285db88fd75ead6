// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/canonical/go-atapio"
	"github.com/canonical/go-atapio/linux"
)

type channelSpec atapio.ChannelConfig

func (c channelSpec) MarshalFlag() (string, error) {
	return fmt.Sprintf("%#x:%#x:%d", c.Base, c.Control, c.IRQ), nil
}

func (c *channelSpec) UnmarshalFlag(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return fmt.Errorf("invalid channel spec %q, expected base:control:irq", value)
	}
	base, err := strconv.ParseUint(parts[0], 0, 16)
	if err != nil {
		return fmt.Errorf("invalid base address: %v", err)
	}
	control, err := strconv.ParseUint(parts[1], 0, 16)
	if err != nil {
		return fmt.Errorf("invalid control address: %v", err)
	}
	irq, err := strconv.ParseUint(parts[2], 0, 8)
	if err != nil {
		return fmt.Errorf("invalid irq: %v", err)
	}
	*c = channelSpec(atapio.ChannelConfig{Base: uint16(base), Control: uint16(control), IRQ: uint8(irq)})
	return nil
}

type options struct {
	Channels []channelSpec `long:"channel" short:"c" description:"Probe the channel at base:control:irq (may be repeated; defaults to the legacy primary and secondary channels)"`
	Verbose  bool          `long:"verbose" short:"v" description:"Log the register level protocol"`
}

var opts options

func run() error {
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}

	channels := []atapio.ChannelConfig{
		{Base: 0x1f0, Control: 0x3f0, IRQ: 14},
		{Base: 0x170, Control: 0x370, IRQ: 15},
	}
	if len(opts.Channels) > 0 {
		channels = channels[:0]
		for _, c := range opts.Channels {
			channels = append(channels, atapio.ChannelConfig(c))
		}
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ports := linux.NewPortIO()
	host := atapio.NewHost(&atapio.HostParams{
		Ports:    ports,
		Clock:    linux.NewClock(),
		Channels: channels,
		Logger:   log})

	host.Detect()
	if err := ports.Err(); err != nil {
		return fmt.Errorf("cannot access I/O ports: %v", err)
	}

	for id := atapio.DeviceID(0); id < atapio.MaxDevices; id++ {
		dev, err := host.Device(id)
		if err != nil {
			continue
		}
		switch dev.Type {
		case atapio.TypeATA:
			fmt.Printf("%s: %s ATA-%d %s PCHS=%s LCHS=%s (%s) %d sectors\n",
				id, dev.Model, dev.Version, dev.Class, dev.PCHS, dev.LCHS,
				dev.Translation, dev.Sectors)
		case atapio.TypeATAPI:
			fmt.Printf("%s: %s ATAPI-%d %s\n", id, dev.Model, dev.Version, dev.Class)
		}
	}
	fmt.Printf("%d hard disk(s), %d optical drive(s)\n", host.HardDisks(), host.CDROMs())

	return nil
}

func main() {
	if err := run(); err != nil {
		switch e := err.(type) {
		case *flags.Error:
			// flags already prints this
			if e.Type != flags.ErrHelp {
				os.Exit(1)
			}
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
