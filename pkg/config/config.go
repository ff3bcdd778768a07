// Copyright 2026 The kcore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the boot configuration of the kernel core.
package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"kcore.dev/kcore/pkg/hostarch"
	"kcore.dev/kcore/pkg/log"
	"kcore.dev/kcore/pkg/pic"
	"kcore.dev/kcore/pkg/pit"
	"kcore.dev/kcore/pkg/ring0"
)

//go:embed default.toml
var defaultTOML string

// Config is the boot configuration.
type Config struct {
	// TimerHz is the PIT channel 0 rate.
	TimerHz uint32 `toml:"timer_hz"`

	// PICMasterOffset and PICSlaveOffset are the first vectors of the two
	// controllers.
	PICMasterOffset uint8 `toml:"pic_master_offset"`
	PICSlaveOffset  uint8 `toml:"pic_slave_offset"`

	// UnmaskIRQs lists the IRQ lines enabled after the PIC handshake.
	UnmaskIRQs []int `toml:"unmask_irqs"`

	// BootWaitTicks is the length of the boot self-test wait.
	BootWaitTicks uint32 `toml:"boot_wait_ticks"`

	// FrameFloor is the lowest physical address the frame allocator uses.
	FrameFloor uint64 `toml:"frame_floor"`

	// ExitAfterBoot leaves the emulator through isa-debug-exit once the
	// self-test is done.
	ExitAfterBoot bool `toml:"exit_after_boot"`

	// LogLevel is one of "warning", "info" or "debug".
	LogLevel string `toml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	if _, err := toml.Decode(defaultTOML, &c); err != nil {
		panic(fmt.Sprintf("default configuration: %v", err))
	}
	return &c
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return finish(c, md)
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("decoding configuration file %q: %w", path, err)
	}
	return finish(c, md)
}

func finish(c *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks c against what the hardware and the trampolines support.
func (c *Config) Validate() error {
	if c.TimerHz < pit.MinRate || c.TimerHz > pit.BaseFrequency {
		return fmt.Errorf("timer_hz %d out of range [%d, %d]", c.TimerHz, pit.MinRate, pit.BaseFrequency)
	}
	for _, o := range []struct {
		name string
		v    uint8
	}{
		{"pic_master_offset", c.PICMasterOffset},
		{"pic_slave_offset", c.PICSlaveOffset},
	} {
		if o.v%8 != 0 {
			return fmt.Errorf("%s %d is not a multiple of 8", o.name, o.v)
		}
		if ring0.Vector(o.v) < ring0.FirstExternal || ring0.Vector(o.v)+7 > ring0.LastExternal {
			return fmt.Errorf("%s %d leaves vectors outside [%d, %d]", o.name, o.v, ring0.FirstExternal, ring0.LastExternal)
		}
	}
	if c.PICMasterOffset == c.PICSlaveOffset {
		return fmt.Errorf("pic_master_offset and pic_slave_offset are both %d", c.PICMasterOffset)
	}
	for _, irq := range c.UnmaskIRQs {
		if irq < 0 || irq >= pic.NumIRQs {
			return fmt.Errorf("unmask_irqs: invalid line %d", irq)
		}
	}
	if !hostarch.Addr(c.FrameFloor).IsPageAligned() {
		return fmt.Errorf("frame_floor %#x is not page aligned", c.FrameFloor)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q must be 'text' or 'json'", c.LogFormat)
	}
	return nil
}

// Level returns the parsed log level. c must be valid.
func (c *Config) Level() log.Level {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}
