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

package memmap

import (
	"kcore.dev/kcore/pkg/hostarch"
	"kcore.dev/kcore/pkg/ring0/pagetables"
)

// Allocator hands out frames from the usable regions of a Map in address
// order. Freed frames are reused first.
//
// It implements pagetables.FrameAllocator.
type Allocator struct {
	regions []Region
	region  int
	next    pagetables.Frame
	free    []pagetables.Frame
}

// NewAllocator returns an allocator over the usable regions of m, skipping
// every frame below floor. floor is typically the end of the kernel image.
func NewAllocator(m *Map, floor uint64) *Allocator {
	a := &Allocator{regions: m.Usable()}
	a.next = pagetables.FrameOf(floor)
	if hostarch.Addr(floor).PageOffset() != 0 {
		a.next++
	}
	return a
}

// AllocateFrame implements pagetables.FrameAllocator.AllocateFrame.
func (a *Allocator) AllocateFrame() (pagetables.Frame, bool) {
	if n := len(a.free); n > 0 {
		f := a.free[n-1]
		a.free = a.free[:n-1]
		return f, true
	}
	for a.region < len(a.regions) {
		r := a.regions[a.region]
		first := pagetables.FrameOf(r.Start)
		if hostarch.Addr(r.Start).PageOffset() != 0 {
			first++
		}
		if a.next < first {
			a.next = first
		}
		// The frame must end inside the region.
		if (a.next+1).Start() <= r.End {
			f := a.next
			a.next++
			return f, true
		}
		a.region++
	}
	return 0, false
}

// DeallocateFrame implements pagetables.FrameAllocator.DeallocateFrame.
func (a *Allocator) DeallocateFrame(f pagetables.Frame) {
	a.free = append(a.free, f)
}
