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

package ring0

import "unsafe"

// GateType is the system descriptor type of a gate.
type GateType uint8

// Gate types.
const (
	// InterruptGate clears IF on entry.
	InterruptGate GateType = 0xE

	// TrapGate leaves IF unchanged, so the handler may be interrupted.
	TrapGate GateType = 0xF
)

const gatePresent = 1 << 15

// Gate64 is a 64-bit trap or interrupt gate.
//
// The layout is the hardware layout: offset[0:16], selector, ist, type and
// attributes, offset[16:32], offset[32:64], reserved.
type Gate64 struct {
	bits [4]uint32
}

// NewGate encodes a present gate.
func NewGate(rip uint64, cs Selector, typ GateType, dpl int, ist int) Gate64 {
	var g Gate64
	g.set(cs, rip, typ, dpl, ist)
	return g
}

func (g *Gate64) set(cs Selector, rip uint64, typ GateType, dpl int, ist int) {
	g.bits[0] = uint32(cs)<<16 | uint32(rip)&0xFFFF
	g.bits[1] = uint32(rip)&0xFFFF0000 | gatePresent | uint32(dpl&3)<<13 | uint32(typ&0xF)<<8 | uint32(ist)&0x7
	g.bits[2] = uint32(rip >> 32)
	g.bits[3] = 0
}

func (g *Gate64) setInterrupt(cs Selector, rip uint64, dpl int, ist int) {
	g.set(cs, rip, InterruptGate, dpl, ist)
}

func (g *Gate64) setTrap(cs Selector, rip uint64, dpl int, ist int) {
	g.setInterrupt(cs, rip, dpl, ist)
	g.bits[1] |= 1 << 8
}

// Address returns the entry point.
func (g Gate64) Address() uint64 {
	return uint64(g.bits[2])<<32 | uint64(g.bits[1]&0xFFFF0000) | uint64(g.bits[0]&0xFFFF)
}

// Selector returns the code segment used on entry.
func (g Gate64) Selector() Selector {
	return Selector(g.bits[0] >> 16)
}

// Type returns the gate type.
func (g Gate64) Type() GateType {
	return GateType((g.bits[1] >> 8) & 0xF)
}

// DPL returns the highest privilege level allowed to INT into this gate.
func (g Gate64) DPL() int {
	return int((g.bits[1] >> 13) & 3)
}

// IST returns the interrupt stack table index, zero for none.
func (g Gate64) IST() int {
	return int(g.bits[1] & 0x7)
}

// Present returns true iff the gate is present.
func (g Gate64) Present() bool {
	return g.bits[1]&gatePresent != 0
}

// IDT is the interrupt descriptor table.
//
// The zero value has every gate missing. A missing gate that the CPU takes
// escalates to a double fault, so every vector the hardware can raise must
// be set before interrupts are enabled. As with GDT, an installed IDT must
// never move.
type IDT [NumVectors]Gate64

// SetHandler points v at rip through a ring 0 interrupt gate.
func (t *IDT) SetHandler(v Vector, rip uintptr) {
	t[v].setInterrupt(Kcode, uint64(rip), 0, 0)
}

// SetTrap points v at rip through a ring 0 trap gate.
func (t *IDT) SetTrap(v Vector, rip uintptr) {
	t[v].setTrap(Kcode, uint64(rip), 0, 0)
}

// Set replaces the gate for v.
func (t *IDT) Set(v Vector, g Gate64) {
	t[v] = g
}

// Missing clears the given vectors.
func (t *IDT) Missing(vs ...Vector) {
	for _, v := range vs {
		t[v] = Gate64{}
	}
}

// Limit is the table limit loaded into IDTR.
func (t *IDT) Limit() uint16 {
	return uint16(len(t)*16 - 1)
}

// Pointer returns the IDTR operand for t.
func (t *IDT) Pointer() DescriptorPointer {
	return DescriptorPointer{
		Limit: t.Limit(),
		Base:  uint64(uintptr(unsafe.Pointer(t))),
	}
}

// Pointer returns the GDTR operand for g.
func (g *GDT) Pointer() DescriptorPointer {
	return DescriptorPointer{
		Limit: g.Limit(),
		Base:  uint64(uintptr(unsafe.Pointer(g))),
	}
}
