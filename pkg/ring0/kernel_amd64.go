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

// Init points every vector that has an entry stub at it.
//
// Debug and Breakpoint use trap gates: they are diagnostic only and may be
// interrupted. Every other vector uses an interrupt gate, so handlers run
// with interrupts disabled.
func (t *IDT) Init() {
	for v, handler := range handlers {
		if v == Debug || v == Breakpoint {
			t.SetTrap(v, handler)
			continue
		}
		t.SetHandler(v, handler)
	}
}

// Install loads g into GDTR and reloads every segment register: DS, ES,
// FS, GS and SS with Kdata, then CS with Kcode.
//
// g must have static storage duration. Interrupts must be disabled.
func (g *GDT) Install() {
	p := g.Pointer().Encode()
	loadGDT(&p)
	loadSegments(Kcode, Kdata)
}

// Install loads t into IDTR.
//
// t must have static storage duration.
func (t *IDT) Install() {
	p := t.Pointer().Encode()
	loadIDT(&p)
}
