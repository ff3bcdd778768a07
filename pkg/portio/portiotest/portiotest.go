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

// Package portiotest provides a recording port bus for driver tests.
package portiotest

import (
	"fmt"
	"sync"
)

// Op is one recorded port access.
type Op struct {
	Write bool
	Port  uint16
	// Width is the access width in bits: 8, 16 or 32.
	Width int
	Value uint32
}

func (o Op) String() string {
	dir := "in"
	if o.Write {
		dir = "out"
	}
	return fmt.Sprintf("%s%d(%#x)=%#x", dir, o.Width, o.Port, o.Value)
}

// Out8 is the Op for an 8-bit write, for building expectations.
func Out8(port uint16, v uint8) Op {
	return Op{Write: true, Port: port, Width: 8, Value: uint32(v)}
}

// Out32 is the Op for a 32-bit write.
func Out32(port uint16, v uint32) Op {
	return Op{Write: true, Port: port, Width: 32, Value: v}
}

// In8 is the Op for an 8-bit read that returned v.
func In8(port uint16, v uint8) Op {
	return Op{Port: port, Width: 8, Value: uint32(v)}
}

// Bus is a fake portio.Bus. Every port behaves as a latch: a read returns
// the last value written or set, unless a read hook is installed for it.
// All accesses are recorded in order.
//
// The zero value is ready to use.
type Bus struct {
	mu      sync.Mutex
	latched map[uint16]uint32
	hooks   map[uint16]func() uint32
	ops     []Op
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Set latches v on port without recording an access.
func (b *Bus) Set(port uint16, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latched == nil {
		b.latched = make(map[uint16]uint32)
	}
	b.latched[port] = v
}

// OnRead makes reads of port return fn's result. A nil fn removes the hook.
func (b *Bus) OnRead(port uint16, fn func() uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		delete(b.hooks, port)
		return
	}
	if b.hooks == nil {
		b.hooks = make(map[uint16]func() uint32)
	}
	b.hooks[port] = fn
}

// Ops returns a copy of all recorded accesses.
func (b *Bus) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.ops...)
}

// Writes returns the recorded writes, in order.
func (b *Bus) Writes() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ws []Op
	for _, o := range b.ops {
		if o.Write {
			ws = append(ws, o)
		}
	}
	return ws
}

// WritesTo returns the values written to port, in order.
func (b *Bus) WritesTo(port uint16) []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var vs []uint32
	for _, o := range b.ops {
		if o.Write && o.Port == port {
			vs = append(vs, o.Value)
		}
	}
	return vs
}

// Reset forgets recorded accesses. Latched values and hooks are kept.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
}

func (b *Bus) in(port uint16, width int) uint32 {
	b.mu.Lock()
	hook := b.hooks[port]
	b.mu.Unlock()

	var v uint32
	if hook != nil {
		// Called unlocked so hooks may use the bus.
		v = hook()
	} else {
		b.mu.Lock()
		v = b.latched[port]
		b.mu.Unlock()
	}
	v &= widthMask(width)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, Op{Port: port, Width: width, Value: v})
	return v
}

func (b *Bus) out(port uint16, width int, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latched == nil {
		b.latched = make(map[uint16]uint32)
	}
	b.latched[port] = v
	b.ops = append(b.ops, Op{Write: true, Port: port, Width: width, Value: v})
}

func widthMask(width int) uint32 {
	if width >= 32 {
		return ^uint32(0)
	}
	return 1<<width - 1
}

// In8 implements portio.Bus.In8.
func (b *Bus) In8(port uint16) uint8 { return uint8(b.in(port, 8)) }

// In16 implements portio.Bus.In16.
func (b *Bus) In16(port uint16) uint16 { return uint16(b.in(port, 16)) }

// In32 implements portio.Bus.In32.
func (b *Bus) In32(port uint16) uint32 { return b.in(port, 32) }

// Out8 implements portio.Bus.Out8.
func (b *Bus) Out8(port uint16, v uint8) { b.out(port, 8, uint32(v)) }

// Out16 implements portio.Bus.Out16.
func (b *Bus) Out16(port uint16, v uint16) { b.out(port, 16, uint32(v)) }

// Out32 implements portio.Bus.Out32.
func (b *Bus) Out32(port uint16, v uint32) { b.out(port, 32, v) }
