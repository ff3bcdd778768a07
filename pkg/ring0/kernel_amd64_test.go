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

//go:build amd64
// +build amd64

package ring0

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

func TestHandlers(t *testing.T) {
	seen := make(map[uintptr]Vector)
	for v := Vector(0); v < NumVectors; v++ {
		addr, ok := Handler(v)
		wantStub := v <= LastExternal && v != 15 && (v <= VirtualizationException || v == SecurityException || v >= FirstExternal)
		if ok != wantStub {
			t.Errorf("Handler(%d) ok = %t, want %t", v, ok, wantStub)
			continue
		}
		if !ok {
			continue
		}
		if addr == 0 {
			t.Errorf("Handler(%d) = 0", v)
		}
		if other, dup := seen[addr]; dup {
			t.Errorf("vectors %d and %d share stub %#x", v, other, addr)
		}
		seen[addr] = v
	}
}

func TestIDTInit(t *testing.T) {
	var idt IDT
	idt.Init()
	for v := Vector(0); v < NumVectors; v++ {
		addr, ok := Handler(v)
		g := idt[v]
		if !ok {
			if g.Present() {
				t.Errorf("vector %d present without a stub", v)
			}
			continue
		}
		if got := g.Address(); got != uint64(addr) {
			t.Errorf("vector %d: Address() = %#x, want %#x", v, got, addr)
		}
		want := InterruptGate
		if v == Debug || v == Breakpoint {
			want = TrapGate
		}
		if got := g.Type(); got != want {
			t.Errorf("vector %d: Type() = %#x, want %#x", v, got, want)
		}
	}
}

func TestInstall(t *testing.T) {
	oldGDT, oldIDT, oldSegs := loadGDT, loadIDT, loadSegments
	defer func() { loadGDT, loadIDT, loadSegments = oldGDT, oldIDT, oldSegs }()

	var calls []string
	var gdtr, idtr [10]byte
	loadGDT = func(p *[10]byte) { calls = append(calls, "lgdt"); gdtr = *p }
	loadIDT = func(p *[10]byte) { calls = append(calls, "lidt"); idtr = *p }
	loadSegments = func(code, data Selector) {
		calls = append(calls, "segments")
		if code != Kcode || data != Kdata {
			t.Errorf("reloadSegments(%#x, %#x), want (%#x, %#x)", code, data, Kcode, Kdata)
		}
	}

	g := NewGDT()
	g.Install()
	var idt IDT
	idt.Install()

	if len(calls) != 3 || calls[0] != "lgdt" || calls[1] != "segments" || calls[2] != "lidt" {
		t.Errorf("calls = %v, want [lgdt segments lidt]", calls)
	}
	if got := binary.LittleEndian.Uint16(gdtr[:2]); got != 23 {
		t.Errorf("GDTR limit = %d, want 23", got)
	}
	if got := binary.LittleEndian.Uint64(gdtr[2:]); got != uint64(uintptr(unsafe.Pointer(&g))) {
		t.Errorf("GDTR base = %#x, want %p", got, &g)
	}
	if got := binary.LittleEndian.Uint16(idtr[:2]); got != 4095 {
		t.Errorf("IDTR limit = %d, want 4095", got)
	}
}
