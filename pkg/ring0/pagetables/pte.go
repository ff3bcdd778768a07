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

package pagetables

import (
	"fmt"
	"strings"

	"kcore.dev/kcore/pkg/bits"
)

// Flags are page table entry flags.
type Flags uint64

// Entry flags.
const (
	Present        Flags = 1 << 0
	Writable       Flags = 1 << 1
	UserAccessible Flags = 1 << 2
	WriteThrough   Flags = 1 << 3
	NoCache        Flags = 1 << 4
	Accessed       Flags = 1 << 5
	Dirty          Flags = 1 << 6
	Huge           Flags = 1 << 7
	Global         Flags = 1 << 8
	NoExecute      Flags = 1 << 63
)

// addressMask selects the frame base: bits 12-51.
const addressMask = 0x000f_ffff_ffff_f000

var flagNames = []struct {
	f    Flags
	name string
}{
	{Present, "present"},
	{Writable, "writable"},
	{UserAccessible, "user"},
	{WriteThrough, "write-through"},
	{NoCache, "no-cache"},
	{Accessed, "accessed"},
	{Dirty, "dirty"},
	{Huge, "huge"},
	{Global, "global"},
	{NoExecute, "no-execute"},
}

// String implements fmt.Stringer.
func (f Flags) String() string {
	var parts []string
	for _, n := range flagNames {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// PTE is a page table entry.
type PTE uint64

// NewPTE returns an entry mapping f with flags.
//
// It panics if f lies beyond the 52-bit physical address space or flags
// overlap the address bits.
func NewPTE(f Frame, flags Flags) PTE {
	if f.Start()&^addressMask != 0 {
		panic(fmt.Sprintf("%v does not fit in an entry", f))
	}
	if uint64(flags)&addressMask != 0 {
		panic(fmt.Sprintf("flags %#x overlap the address bits", uint64(flags)))
	}
	return PTE(f.Start() | uint64(flags))
}

// Set points p at f with flags.
func (p *PTE) Set(f Frame, flags Flags) {
	*p = NewPTE(f, flags)
}

// Clear marks p unused.
func (p *PTE) Clear() {
	*p = 0
}

// Unused returns true iff p is all zero.
func (p PTE) Unused() bool {
	return p == 0
}

// Flags returns the flag bits.
func (p PTE) Flags() Flags {
	return Flags(uint64(p) &^ addressMask)
}

// Present returns true iff the present flag is set.
func (p PTE) Present() bool {
	return bits.IsAnyOn(p.Flags(), Present)
}

// Huge returns true iff the entry maps a huge page.
func (p PTE) Huge() bool {
	return bits.IsAnyOn(p.Flags(), Huge)
}

// Frame returns the frame p points at, if p is present.
func (p PTE) Frame() (Frame, bool) {
	if !p.Present() {
		return 0, false
	}
	return FrameOf(uint64(p) & addressMask), true
}

// String implements fmt.Stringer.
func (p PTE) String() string {
	return fmt.Sprintf("%#016x [%v]", uint64(p)&addressMask, p.Flags())
}
