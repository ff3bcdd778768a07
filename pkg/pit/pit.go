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

// Package pit drives channel 0 of the 8253/8254 programmable interval timer
// and keeps the tick counter fed by its interrupt.
package pit

import (
	"fmt"

	"kcore.dev/kcore/pkg/atomicbitops"
	"kcore.dev/kcore/pkg/portio"
)

// Ports.
const (
	Channel0 uint16 = 0x40
	Channel1 uint16 = 0x41
	Channel2 uint16 = 0x42
	Command  uint16 = 0x43
)

const (
	// BaseFrequency is the oscillator frequency in Hz.
	BaseFrequency = 1193180

	// MinRate is the lowest rate whose divisor fits in 16 bits.
	MinRate = BaseFrequency/0xffff + 1

	// accessLowHigh selects "low byte then high byte" access.
	accessLowHigh = 3 << 4

	// modeSquareWave is operating mode 3.
	modeSquareWave = 3 << 1

	// TickWrap is the value at which the tick counter wraps to zero.
	TickWrap = 0xffffffff - 1
)

// Divisor returns the reload value for hz ticks per second.
//
// It panics if hz is zero or the divisor does not fit the 16-bit counter.
func Divisor(hz uint32) uint16 {
	if hz < MinRate || hz > BaseFrequency {
		panic(fmt.Sprintf("PIT rate %d Hz outside [%d, %d]", hz, MinRate, BaseFrequency))
	}
	return uint16(BaseFrequency / hz)
}

// Timer is channel 0 plus the tick counter.
//
// The counter is written only by Tick, from the timer interrupt, and read
// by Wait on the normal path.
type Timer struct {
	bus   portio.Bus
	rate  uint32
	ticks atomicbitops.Uint32

	// relax is called on every Wait iteration.
	relax func()
}

// New returns a timer on bus. The hardware is not touched until SetRate.
func New(bus portio.Bus) *Timer {
	return &Timer{
		bus:   bus,
		relax: func() {},
	}
}

// SetRelax sets the function Wait calls while spinning, such as HLT on the
// real machine. A nil fn spins without relaxing.
func (t *Timer) SetRelax(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	t.relax = fn
}

// SetRate programs channel 0 for hz interrupts per second: the command byte
// (channel 0, low/high access, square wave), then the divisor low byte, then
// the high byte.
func (t *Timer) SetRate(hz uint32) {
	d := Divisor(hz)
	t.rate = hz
	t.bus.Out8(Command, modeSquareWave|accessLowHigh)
	t.bus.Out8(Channel0, uint8(d&0xff))
	t.bus.Out8(Channel0, uint8(d>>8))
}

// Rate returns the programmed rate, zero before SetRate.
func (t *Timer) Rate() uint32 {
	return t.rate
}

// Tick advances the counter. It is called once per timer interrupt.
//
//go:nosplit
func (t *Timer) Tick() {
	if t.ticks.Add(1) >= TickWrap {
		t.ticks.Store(0)
	}
}

// Ticks returns the counter.
func (t *Timer) Ticks() uint32 {
	return t.ticks.Load()
}

// Wait spins until the counter reaches n, then resets it to zero. The
// delay is relative to the last reset, not an absolute clock.
//
// Wait(0) returns immediately.
func (t *Timer) Wait(n uint32) {
	for t.ticks.Load() < n {
		t.relax()
	}
	t.ticks.Store(0)
}
