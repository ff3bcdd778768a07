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

// Frame is a physical frame number.
type Frame uint64

// FrameOf returns the frame containing phys.
func FrameOf(phys uint64) Frame {
	return Frame(phys >> hostarch.PageShift)
}

// Start returns the physical address of the first byte of f.
func (f Frame) Start() uint64 {
	return uint64(f) << hostarch.PageShift
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return fmt.Sprintf("frame %#x", f.Start())
}

// Page is a virtual page number of a canonical address.
type Page uint64

const indexMask = hostarch.EntriesPerTable - 1

// PageOf returns the page containing virt. It panics if virt is not
// canonical.
func PageOf(virt hostarch.Addr) Page {
	if !virt.IsCanonical() {
		panic(fmt.Sprintf("non-canonical address %#x", uintptr(virt)))
	}
	return Page(uint64(virt) >> hostarch.PageShift)
}

// PageFromIndices returns the page selected by the four table indices.
func PageFromIndices(p4, p3, p2, p1 int) Page {
	v := uint64(p4&indexMask)<<39 | uint64(p3&indexMask)<<30 | uint64(p2&indexMask)<<21 | uint64(p1&indexMask)<<12
	return PageOf(hostarch.Canonicalize(v))
}

// Start returns the first address of p.
func (p Page) Start() hostarch.Addr {
	return hostarch.Addr(uint64(p) << hostarch.PageShift)
}

// P4Index returns the index into P4 (address bits 39-47).
func (p Page) P4Index() int { return int(p>>27) & indexMask }

// P3Index returns the index into P3 (address bits 30-38).
func (p Page) P3Index() int { return int(p>>18) & indexMask }

// P2Index returns the index into P2 (address bits 21-29).
func (p Page) P2Index() int { return int(p>>9) & indexMask }

// P1Index returns the index into P1 (address bits 12-20).
func (p Page) P1Index() int { return int(p) & indexMask }

// String implements fmt.Stringer.
func (p Page) String() string {
	return fmt.Sprintf("page %v [%d %d %d %d]", p.Start(), p.P4Index(), p.P3Index(), p.P2Index(), p.P1Index())
}
