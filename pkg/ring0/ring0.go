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

// Package ring0 encodes the x86_64 descriptor tables and provides the
// interrupt entry path.
//
// The encoders (SegmentDescriptor, GDT, Gate64, IDT) are portable and are
// tested on the host. Everything that executes a privileged instruction
// lives in *_amd64.s files and is reached only through Install, the
// trampolines, and the CPU shim functions.
package ring0

import "fmt"

// Vector is an exception or interrupt vector.
type Vector uintptr

// Exception vectors.
const (
	DivideByZero Vector = iota
	Debug
	NMI
	Breakpoint
	Overflow
	BoundRangeExceeded
	InvalidOpcode
	DeviceNotAvailable
	DoubleFault
	CoprocessorSegmentOverrun
	InvalidTSS
	SegmentNotPresent
	StackSegmentFault
	GeneralProtectionFault
	PageFault
	_
	X87FloatingPointException
	AlignmentCheck
	MachineCheck
	SIMDFloatingPointException
	VirtualizationException
	SecurityException Vector = 0x1e
)

const (
	// FirstExternal is the lowest vector with an entry trampoline for
	// external (PIC) interrupts.
	FirstExternal Vector = 0x20

	// LastExternal is the highest such vector. The PIC offsets must place
	// all sixteen IRQ lines within [FirstExternal, LastExternal].
	LastExternal Vector = 0x3f

	// NumVectors is the size of the IDT.
	NumVectors = 256
)

var vectorNames = map[Vector]string{
	DivideByZero:               "divide by zero",
	Debug:                      "debug",
	NMI:                        "non-maskable interrupt",
	Breakpoint:                 "breakpoint",
	Overflow:                   "overflow",
	BoundRangeExceeded:         "bound range exceeded",
	InvalidOpcode:              "invalid opcode",
	DeviceNotAvailable:         "device not available",
	DoubleFault:                "double fault",
	CoprocessorSegmentOverrun:  "coprocessor segment overrun",
	InvalidTSS:                 "invalid TSS",
	SegmentNotPresent:          "segment not present",
	StackSegmentFault:          "stack segment fault",
	GeneralProtectionFault:     "general protection fault",
	PageFault:                  "page fault",
	X87FloatingPointException:  "x87 floating point exception",
	AlignmentCheck:             "alignment check",
	MachineCheck:               "machine check",
	SIMDFloatingPointException: "SIMD floating point exception",
	VirtualizationException:    "virtualization exception",
	SecurityException:          "security exception",
}

// String implements fmt.Stringer.
func (v Vector) String() string {
	if name, ok := vectorNames[v]; ok {
		return name
	}
	return fmt.Sprintf("vector %d", uintptr(v))
}

// HasErrorCode returns true iff the CPU pushes an error code when raising v.
func (v Vector) HasErrorCode() bool {
	switch v {
	case DoubleFault, InvalidTSS, SegmentNotPresent, StackSegmentFault,
		GeneralProtectionFault, PageFault, AlignmentCheck, SecurityException:
		return true
	default:
		return false
	}
}

// IsException returns true iff v is reserved for CPU exceptions.
func (v Vector) IsException() bool {
	return v < FirstExternal
}
