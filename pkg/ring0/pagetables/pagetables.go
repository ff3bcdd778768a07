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

// Package pagetables models x86_64 four-level page tables reached through a
// recursive mapping.
//
// The last entry of the top-level table (P4) points back at P4 itself. With
// that entry in place every table in the hierarchy is visible at a fixed
// virtual address: the table at address A has, for entry i, its next-level
// table at (A << 9) | (i << 12). No physical-to-virtual translation layer is
// needed.
//
// Levels are distinct types. Only P4, P3 and P2 can descend; a P1 entry
// always points at data.
package pagetables

import (
	"errors"
	"fmt"
	"unsafe"

	"kcore.dev/kcore/pkg/hostarch"
)

const (
	// RecursiveIndex is the P4 slot that maps P4 itself.
	RecursiveIndex = hostarch.EntriesPerTable - 1

	// P4Addr is the virtual address of P4 through the recursive slot.
	P4Addr hostarch.Addr = 0xffff_ffff_ffff_f000
)

// ErrNoFrames is returned when the allocator cannot supply a table frame.
var ErrNoFrames = errors.New("out of physical frames")

// FrameAllocator hands out physical frames.
//
// The core only depends on this contract; the boot memory map provides the
// implementation.
type FrameAllocator interface {
	// AllocateFrame returns a free frame, or false if none is left.
	AllocateFrame() (Frame, bool)

	// DeallocateFrame returns f to the free pool.
	DeallocateFrame(f Frame)
}

// PTEs is a page table: one page of entries.
type PTEs [hostarch.EntriesPerTable]PTE

// Clear marks every entry unused.
func (p *PTEs) Clear() {
	for i := range p {
		p[i].Clear()
	}
}

// tableAt interprets addr as a live table.
//
// This is the only place the package converts an address into a pointer.
// Tests replace it with a simulated MMU.
var tableAt = func(addr hostarch.Addr) *PTEs {
	return (*PTEs)(unsafe.Pointer(uintptr(addr)))
}

// table is the state shared by every level: its recursive address.
type table struct {
	addr hostarch.Addr
}

// Addr returns the virtual address of the table.
func (t table) Addr() hostarch.Addr {
	return t.addr
}

// Entries returns the live entries.
func (t table) Entries() *PTEs {
	return tableAt(t.addr)
}

// Entry returns entry i.
func (t table) Entry(i int) PTE {
	return t.Entries()[i]
}

// SetEntry replaces entry i.
func (t table) SetEntry(i int, e PTE) {
	t.Entries()[i] = e
}

// nextAddr returns the recursive address of the table behind entry i.
func (t table) nextAddr(i int) hostarch.Addr {
	return t.addr<<9 | hostarch.Addr(i)<<hostarch.PageShift
}

// next returns the table behind entry i if the entry is present and does
// not map a huge page.
func (t table) next(i int) (table, bool) {
	e := t.Entry(i)
	if !e.Present() || e.Huge() {
		return table{}, false
	}
	return table{addr: t.nextAddr(i)}, true
}

// nextCreate is next, allocating and clearing a table if entry i is unused.
func (t table) nextCreate(i int, alloc FrameAllocator) (table, error) {
	e := t.Entry(i)
	if e.Huge() {
		panic(fmt.Sprintf("entry %d of table %v maps a huge page", i, t.addr))
	}
	if !e.Present() {
		f, ok := alloc.AllocateFrame()
		if !ok {
			return table{}, ErrNoFrames
		}
		t.SetEntry(i, NewPTE(f, Present|Writable))
		n := table{addr: t.nextAddr(i)}
		n.Entries().Clear()
		return n, nil
	}
	return table{addr: t.nextAddr(i)}, nil
}

// P4 is the top-level table.
type P4 struct{ table }

// P3 is the third-level table. Its entries map tables or 1G pages.
type P3 struct{ table }

// P2 is the second-level table. Its entries map tables or 2M pages.
type P2 struct{ table }

// P1 is the last level. Its entries map 4K pages.
type P1 struct{ table }

// Next returns the P3 behind entry i.
func (t P4) Next(i int) (P3, bool) {
	n, ok := t.next(i)
	return P3{n}, ok
}

// NextCreate returns the P3 behind entry i, creating it if needed.
func (t P4) NextCreate(i int, alloc FrameAllocator) (P3, error) {
	n, err := t.nextCreate(i, alloc)
	return P3{n}, err
}

// Next returns the P2 behind entry i.
func (t P3) Next(i int) (P2, bool) {
	n, ok := t.next(i)
	return P2{n}, ok
}

// NextCreate returns the P2 behind entry i, creating it if needed.
func (t P3) NextCreate(i int, alloc FrameAllocator) (P2, error) {
	n, err := t.nextCreate(i, alloc)
	return P2{n}, err
}

// Next returns the P1 behind entry i.
func (t P2) Next(i int) (P1, bool) {
	n, ok := t.next(i)
	return P1{n}, ok
}

// NextCreate returns the P1 behind entry i, creating it if needed.
func (t P2) NextCreate(i int, alloc FrameAllocator) (P1, error) {
	n, err := t.nextCreate(i, alloc)
	return P1{n}, err
}
