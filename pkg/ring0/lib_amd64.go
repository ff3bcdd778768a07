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

// The privileged instruction shim. Callers go through the function
// variables below, never the assembly functions, so tests can replace them.
var (
	// EnableInterrupts sets IF (STI).
	EnableInterrupts = sti

	// DisableInterrupts clears IF (CLI).
	DisableInterrupts = cli

	// Halt stops the CPU until the next interrupt (HLT).
	Halt = hlt

	// ReadCR2 returns the faulting linear address of the last page fault.
	ReadCR2 = readCR2

	// ReadCR3 returns the physical address of the active top-level table.
	ReadCR3 = readCR3

	// InvalidatePage flushes the TLB entry for one virtual address.
	InvalidatePage = invlpg

	// loadGDT, loadIDT and loadSegments are used by Install.
	loadGDT      = lgdt
	loadIDT      = lidt
	loadSegments = reloadSegments
)

// sti enables interrupts.
func sti()

// cli disables interrupts.
func cli()

// hlt halts until the next interrupt.
func hlt()

// readCR2 reads the current CR2 value.
func readCR2() uintptr

// readCR3 reads the current CR3 value.
func readCR3() uintptr

// invlpg invalidates the TLB entry for addr.
func invlpg(addr uintptr)

// lgdt loads GDTR from a packed pointer.
func lgdt(p *[10]byte)

// lidt loads IDTR from a packed pointer.
func lidt(p *[10]byte)

// reloadSegments loads data into DS, ES, FS, GS and SS, then reloads CS
// with code through a far return to the caller.
func reloadSegments(code, data Selector)
