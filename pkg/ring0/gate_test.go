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
	"testing"
	"unsafe"
)

func TestSetHandlerAllVectors(t *testing.T) {
	var idt IDT
	addr := func(v int) uintptr {
		return uintptr(0xffffffff80100000 + uint64(v)*0x10010)
	}
	for v := 0; v < NumVectors; v++ {
		idt.SetHandler(Vector(v), addr(v))
	}
	for v := 0; v < NumVectors; v++ {
		g := idt[v]
		if got := g.Address(); got != uint64(addr(v)) {
			t.Errorf("vector %d: Address() = %#x, want %#x", v, got, addr(v))
		}
		if !g.Present() {
			t.Errorf("vector %d: not present", v)
		}
		if got := g.Selector(); got != Kcode {
			t.Errorf("vector %d: Selector() = %#x, want %#x", v, got, Kcode)
		}
		if got := g.Type(); got != InterruptGate {
			t.Errorf("vector %d: Type() = %#x, want interrupt gate", v, got)
		}
		if g.DPL() != 0 || g.IST() != 0 {
			t.Errorf("vector %d: dpl=%d ist=%d, want 0", v, g.DPL(), g.IST())
		}
	}
}

func TestGateEncoding(t *testing.T) {
	g := NewGate(0x123456789abcdef0, Kcode, InterruptGate, 0, 0)
	want := [4]uint32{0x0008def0, 0x9abc8e00, 0x12345678, 0}
	if g.bits != want {
		t.Errorf("bits = %#x, want %#x", g.bits, want)
	}

	g = NewGate(0xffff800000001000, Selector(0x2b), TrapGate, 3, 5)
	if got := g.Address(); got != 0xffff800000001000 {
		t.Errorf("Address() = %#x", got)
	}
	if g.Selector() != 0x2b || g.Type() != TrapGate || g.DPL() != 3 || g.IST() != 5 {
		t.Errorf("fields = %#x/%#x/%d/%d", g.Selector(), g.Type(), g.DPL(), g.IST())
	}
}

func TestSetTrapAndMissing(t *testing.T) {
	var idt IDT
	idt.SetTrap(Breakpoint, 0x4000)
	if got := idt[Breakpoint].Type(); got != TrapGate {
		t.Errorf("Type() = %#x, want trap gate", got)
	}
	idt.Set(PageFault, NewGate(0x5000, Kcode, InterruptGate, 0, 1))
	if got := idt[PageFault].IST(); got != 1 {
		t.Errorf("IST() = %d, want 1", got)
	}
	idt.Missing(Breakpoint, PageFault)
	if idt[Breakpoint] != (Gate64{}) || idt[PageFault] != (Gate64{}) {
		t.Errorf("Missing left gates in place")
	}
}

func TestTableSizes(t *testing.T) {
	if got := unsafe.Sizeof(Gate64{}); got != 16 {
		t.Errorf("sizeof(Gate64) = %d, want 16", got)
	}
	if got := unsafe.Sizeof(SegmentDescriptor{}); got != 8 {
		t.Errorf("sizeof(SegmentDescriptor) = %d, want 8", got)
	}
	var idt IDT
	p := idt.Pointer()
	if p.Limit != 4095 {
		t.Errorf("IDT limit = %d, want 4095", p.Limit)
	}
	if p.Base != uint64(uintptr(unsafe.Pointer(&idt))) {
		t.Errorf("IDT base = %#x, want table address", p.Base)
	}
}
