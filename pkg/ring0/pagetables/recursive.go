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

	"kcore.dev/kcore/pkg/hostarch"
)

// Recursive is the active hierarchy, reached through the recursive slot of
// the loaded P4.
type Recursive struct {
	p4 P4

	// invalidate flushes one TLB entry after a mapping is removed.
	invalidate func(addr uintptr)
}

// NewRecursive returns the active hierarchy.
//
// Precondition: the loaded P4 maps itself at RecursiveIndex. Nothing here
// can verify that; the bootloader sets it up.
func NewRecursive() *Recursive {
	return &Recursive{
		p4:         P4{table{addr: P4Addr}},
		invalidate: flushPage,
	}
}

// P4 returns the top-level table.
func (r *Recursive) P4() P4 {
	return r.p4
}

// Translate returns the physical address virt maps to, or false if it is
// not mapped. It panics if virt is not canonical.
func (r *Recursive) Translate(virt hostarch.Addr) (uint64, bool) {
	f, ok := r.TranslatePage(PageOf(virt))
	if !ok {
		return 0, false
	}
	return f.Start() + virt.PageOffset(), true
}

// TranslatePage returns the frame page maps to, or false if it is not
// mapped.
//
// Huge mappings are resolved by offsetting into the large region. The huge
// frame must be aligned to the size of the region it maps; a misaligned
// huge entry is a corrupt table and panics.
func (r *Recursive) TranslatePage(page Page) (Frame, bool) {
	p3, ok := r.p4.Next(page.P4Index())
	if !ok {
		return 0, false
	}

	e := p3.Entry(page.P3Index())
	if e.Huge() {
		start, ok := e.Frame()
		if !ok {
			return 0, false
		}
		if start.Start()%hostarch.GiantPageSize != 0 {
			panic(fmt.Sprintf("1G entry at %v points at misaligned %v", page, start))
		}
		return start + Frame(page.P2Index()*hostarch.EntriesPerTable+page.P1Index()), true
	}
	p2, ok := p3.Next(page.P3Index())
	if !ok {
		return 0, false
	}

	e = p2.Entry(page.P2Index())
	if e.Huge() {
		start, ok := e.Frame()
		if !ok {
			return 0, false
		}
		if start.Start()%hostarch.HugePageSize != 0 {
			panic(fmt.Sprintf("2M entry at %v points at misaligned %v", page, start))
		}
		return start + Frame(page.P1Index()), true
	}
	p1, ok := p2.Next(page.P2Index())
	if !ok {
		return 0, false
	}

	return p1.Entry(page.P1Index()).Frame()
}

// Map maps page to frame with flags, allocating intermediate tables from
// alloc. Present is always added to flags.
//
// It panics if page is already mapped or if the walk crosses a huge page.
// It returns ErrNoFrames if a table could not be allocated; tables created
// before the failure stay in place.
func (r *Recursive) Map(page Page, frame Frame, flags Flags, alloc FrameAllocator) error {
	p3, err := r.p4.NextCreate(page.P4Index(), alloc)
	if err != nil {
		return err
	}
	p2, err := p3.NextCreate(page.P3Index(), alloc)
	if err != nil {
		return err
	}
	p1, err := p2.NextCreate(page.P2Index(), alloc)
	if err != nil {
		return err
	}

	e := &p1.Entries()[page.P1Index()]
	if !e.Unused() {
		panic(fmt.Sprintf("%v is already mapped: %v", page, *e))
	}
	e.Set(frame, flags|Present)
	return nil
}

// IdentityMap maps the page whose address equals frame's.
func (r *Recursive) IdentityMap(frame Frame, flags Flags, alloc FrameAllocator) error {
	return r.Map(PageOf(hostarch.Canonicalize(frame.Start())), frame, flags, alloc)
}

// Unmap removes the mapping of page and flushes its TLB entry. If alloc is
// not nil, the frame is returned to it. It returns the frame that was
// mapped, or false if page was not mapped.
//
// Huge pages cannot be unmapped one page at a time; asking to panics.
// Intermediate tables are never freed.
func (r *Recursive) Unmap(page Page, alloc FrameAllocator) (Frame, bool) {
	p3, ok := r.p4.Next(page.P4Index())
	if !ok {
		return 0, false
	}
	if p3.Entry(page.P3Index()).Huge() {
		panic(fmt.Sprintf("%v is inside a 1G page", page))
	}
	p2, ok := p3.Next(page.P3Index())
	if !ok {
		return 0, false
	}
	if p2.Entry(page.P2Index()).Huge() {
		panic(fmt.Sprintf("%v is inside a 2M page", page))
	}
	p1, ok := p2.Next(page.P2Index())
	if !ok {
		return 0, false
	}

	e := &p1.Entries()[page.P1Index()]
	f, ok := e.Frame()
	if !ok {
		return 0, false
	}
	e.Clear()
	if r.invalidate != nil {
		r.invalidate(uintptr(page.Start()))
	}
	if alloc != nil {
		alloc.DeallocateFrame(f)
	}
	return f, true
}

// TableAddrs returns the recursive addresses of the P4, P3, P2 and P1
// tables on the walk for page. The addresses are computed, not
// dereferenced, so they are only meaningful while those tables exist.
func TableAddrs(page Page) [4]hostarch.Addr {
	t := table{addr: P4Addr}
	addrs := [4]hostarch.Addr{t.addr}
	for i, idx := range []int{page.P4Index(), page.P3Index(), page.P2Index()} {
		t = table{addr: t.nextAddr(idx)}
		addrs[i+1] = t.addr
	}
	return addrs
}
