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

// Package memmap holds the physical memory map handed over by the
// bootloader.
//
// Regions are kept ordered by start address and never overlap.
package memmap

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/btree"
	"kcore.dev/kcore/pkg/hostarch"
)

// Kind classifies a region. Values match the multiboot2 memory map types.
type Kind uint32

// Region kinds.
const (
	Usable          Kind = 1
	Reserved        Kind = 2
	ACPIReclaimable Kind = 3
	ACPINVS         Kind = 4
	BadMemory       Kind = 5
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Usable:
		return "usable"
	case Reserved:
		return "reserved"
	case ACPIReclaimable:
		return "acpi-reclaimable"
	case ACPINVS:
		return "acpi-nvs"
	case BadMemory:
		return "bad"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// Region is the physical range [Start, End).
type Region struct {
	Start uint64
	End   uint64
	Kind  Kind
}

// Length returns the size of r in bytes.
func (r Region) Length() uint64 {
	return r.End - r.Start
}

// Contains returns true iff addr is in r.
func (r Region) Contains(addr uint64) bool {
	return r.Start <= addr && addr < r.End
}

// Frames returns the number of whole frames inside r.
func (r Region) Frames() uint64 {
	start, ok := hostarch.Addr(r.Start).RoundUp()
	if !ok {
		return 0
	}
	end := hostarch.Addr(r.End).RoundDown()
	if end <= start {
		return 0
	}
	return uint64(end-start) / hostarch.PageSize
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("[%#016x, %#016x) %v", r.Start, r.End, r.Kind)
}

var (
	// ErrEmpty is returned for a region that covers no bytes.
	ErrEmpty = errors.New("empty region")

	// ErrOverlap is returned when a region overlaps one already in the map.
	ErrOverlap = errors.New("overlapping region")
)

// degree is the B-tree degree. Boot maps hold a few dozen entries.
const degree = 8

// Map is an ordered set of non-overlapping regions.
//
// The zero value is not usable; call New.
type Map struct {
	tree *btree.BTreeG[Region]
}

func lessRegion(a, b Region) bool {
	return a.Start < b.Start
}

// New returns an empty map.
func New() *Map {
	return &Map{tree: btree.NewG[Region](degree, lessRegion)}
}

// Insert adds r. It fails if r is empty or overlaps an existing region.
func (m *Map) Insert(r Region) error {
	if r.End <= r.Start {
		return fmt.Errorf("%v: %w", r, ErrEmpty)
	}
	if prev, ok := m.floor(r.Start); ok && prev.End > r.Start {
		return fmt.Errorf("%v and %v: %w", r, prev, ErrOverlap)
	}
	var next Region
	found := false
	m.tree.AscendGreaterOrEqual(Region{Start: r.Start}, func(n Region) bool {
		next, found = n, true
		return false
	})
	if found && next.Start < r.End {
		return fmt.Errorf("%v and %v: %w", r, next, ErrOverlap)
	}
	m.tree.ReplaceOrInsert(r)
	return nil
}

// floor returns the region with the greatest start not above addr.
func (m *Map) floor(addr uint64) (Region, bool) {
	var r Region
	found := false
	m.tree.DescendLessOrEqual(Region{Start: addr}, func(n Region) bool {
		r, found = n, true
		return false
	})
	return r, found
}

// Lookup returns the region containing addr.
func (m *Map) Lookup(addr uint64) (Region, bool) {
	r, ok := m.floor(addr)
	if !ok || !r.Contains(addr) {
		return Region{}, false
	}
	return r, true
}

// Len returns the number of regions.
func (m *Map) Len() int {
	return m.tree.Len()
}

// Ascend calls fn for each region in address order until fn returns false.
func (m *Map) Ascend(fn func(Region) bool) {
	m.tree.Ascend(fn)
}

// Usable returns the usable regions in address order.
func (m *Map) Usable() []Region {
	var rs []Region
	m.Ascend(func(r Region) bool {
		if r.Kind == Usable {
			rs = append(rs, r)
		}
		return true
	})
	return rs
}

// UsableFrames returns the number of whole frames in usable regions.
func (m *Map) UsableFrames() uint64 {
	var n uint64
	for _, r := range m.Usable() {
		n += r.Frames()
	}
	return n
}

// WriteTo writes one line per region to w.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	var (
		total int64
		err   error
	)
	m.Ascend(func(r Region) bool {
		var n int
		n, err = fmt.Fprintf(w, "  %v\n", r)
		total += int64(n)
		return err == nil
	})
	return total, err
}
