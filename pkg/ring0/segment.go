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

import (
	"encoding/binary"
	"fmt"

	"kcore.dev/kcore/pkg/bits"
)

// Selector is a segment Selector.
type Selector uint16

// Segment indices and Selectors.
const (
	// Index into GDT array.
	_        = iota // Null descriptor first.
	segKcode        // Kernel code (64-bit).
	segKdata        // Kernel data.
	segLast         // Last segment (terminal, not included).
)

// Selectors.
const (
	Kcode Selector = segKcode << 3
	Kdata Selector = segKdata << 3
)

// Index returns the table index referenced by s.
func (s Selector) Index() int {
	return int(s >> 3)
}

// RPL returns the requested privilege level.
func (s Selector) RPL() int {
	return int(s & 3)
}

// SegmentAccess is the access byte of a segment descriptor.
type SegmentAccess uint8

// SegmentAccess flags.
const (
	AccessAccessed   SegmentAccess = 1 << 0 // Set by the CPU on first use.
	AccessReadWrite  SegmentAccess = 1 << 1 // Readable code or writable data.
	AccessExpandDown SegmentAccess = 1 << 2 // Grows down, not used.
	AccessExecutable SegmentAccess = 1 << 3 // Code segment.
	AccessNonSystem  SegmentAccess = 1 << 4 // Zero => system, 1 => code/data.
	AccessPresent    SegmentAccess = 1 << 7 // Present.
)

// AccessDPL returns the access bits for privilege level dpl.
func AccessDPL(dpl int) SegmentAccess {
	return SegmentAccess(dpl&3) << 5
}

// SegmentGranularity is the flags nibble stored beside the upper limit bits.
type SegmentGranularity uint8

// SegmentGranularity flags.
const (
	GranularityAvailable SegmentGranularity = 1 << 0 // Available to software.
	GranularityLong      SegmentGranularity = 1 << 1 // 64-bit code.
	GranularityDB        SegmentGranularity = 1 << 2 // 32-bit default operand size.
	GranularityPage      SegmentGranularity = 1 << 3 // Limit counts 4K pages.
)

// Field widths checked by NewSegmentDescriptor.
const (
	maxSegmentLimit       = 0xfffff
	maxSegmentGranularity = 0xf
)

// SegmentDescriptor is a segment descriptor.
//
// The layout is the hardware layout: limit[0:16], base[0:24], access,
// limit[16:20], granularity, base[24:32].
type SegmentDescriptor struct {
	bits [2]uint32
}

// NewSegmentDescriptor encodes a descriptor.
//
// Values that do not fit their field are rejected with a panic; a truncated
// descriptor would only fail much later, on the first segment load.
func NewSegmentDescriptor(base, limit uint32, access SegmentAccess, granularity SegmentGranularity) SegmentDescriptor {
	if !bits.Fits(limit, 20) {
		panic(fmt.Sprintf("segment limit %#x exceeds 20 bits", limit))
	}
	if !bits.Fits(granularity, 4) {
		panic(fmt.Sprintf("segment granularity %#x exceeds 4 bits", granularity))
	}
	var d SegmentDescriptor
	d.bits[0] = base<<16 | limit&0xFFFF
	d.bits[1] = base&0xFF000000 | uint32(granularity)<<20 | limit&0x000F0000 | uint32(access)<<8 | (base>>16)&0xFF
	return d
}

// Base returns the descriptor's base linear address.
func (d SegmentDescriptor) Base() uint32 {
	return d.bits[1]&0xFF000000 | (d.bits[1]&0x000000FF)<<16 | d.bits[0]>>16
}

// Limit returns the raw 20-bit limit field.
func (d SegmentDescriptor) Limit() uint32 {
	return d.bits[0]&0xFFFF | d.bits[1]&0xF0000
}

// Size returns the segment size in bytes implied by the limit and the
// page granularity flag.
func (d SegmentDescriptor) Size() uint64 {
	l := uint64(d.Limit())
	if d.Granularity()&GranularityPage != 0 {
		l = l<<12 | 0xFFF
	}
	return l + 1
}

// Access returns the access byte.
func (d SegmentDescriptor) Access() SegmentAccess {
	return SegmentAccess(d.bits[1] >> 8)
}

// Granularity returns the flags nibble.
func (d SegmentDescriptor) Granularity() SegmentGranularity {
	return SegmentGranularity(d.bits[1]>>20) & maxSegmentGranularity
}

// Present returns true iff the present bit is set.
func (d SegmentDescriptor) Present() bool {
	return bits.IsOn(d.Access(), AccessPresent)
}

// DPL returns the descriptor privilege level.
func (d SegmentDescriptor) DPL() int {
	return int(bits.Field(uint64(d.bits[1]), 13, 2))
}

// Uint64 returns the descriptor as the CPU reads it.
func (d SegmentDescriptor) Uint64() uint64 {
	return uint64(d.bits[1])<<32 | uint64(d.bits[0])
}

// Standard segments: flat 4G, page granular, ring 0.
var (
	KernelCodeSegment = NewSegmentDescriptor(0, maxSegmentLimit,
		AccessPresent|AccessNonSystem|AccessExecutable|AccessReadWrite,
		GranularityPage|GranularityLong)
	KernelDataSegment = NewSegmentDescriptor(0, maxSegmentLimit,
		AccessPresent|AccessNonSystem|AccessReadWrite,
		GranularityPage|GranularityLong)
)

// GDT is the global descriptor table.
//
// A GDT passed to Install must never move or be freed afterwards: the CPU
// keeps its linear address. Use a package-level variable.
type GDT [segLast]SegmentDescriptor

// NewGDT returns a table holding the null, kernel code and kernel data
// descriptors at their selector positions.
func NewGDT() GDT {
	var g GDT
	g[segKcode] = KernelCodeSegment
	g[segKdata] = KernelDataSegment
	return g
}

// SetEntry replaces descriptor i.
func (g *GDT) SetEntry(i int, d SegmentDescriptor) {
	g[i] = d
}

// Limit is the table limit loaded into GDTR.
func (g *GDT) Limit() uint16 {
	return uint16(len(g)*8 - 1)
}

// DescriptorPointer is the operand of LGDT and LIDT.
type DescriptorPointer struct {
	Limit uint16
	Base  uint64
}

// Encode returns the packed 10-byte form: a 16-bit limit followed by the
// 64-bit linear address.
func (p DescriptorPointer) Encode() [10]byte {
	var b [10]byte
	binary.LittleEndian.PutUint16(b[:2], p.Limit)
	binary.LittleEndian.PutUint64(b[2:], p.Base)
	return b
}
