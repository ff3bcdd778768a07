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
	"fmt"
	"io"
)

// Registers are the general purpose registers saved by the trampoline.
//
// Field order is the save order: RAX is at the lowest address. The
// trampoline restores them from the same offsets before IRETQ.
type Registers struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64
}

// InterruptFrame is the return frame pushed by the CPU and consumed by
// IRETQ.
type InterruptFrame struct {
	RIP    uint64
	CS     uint64
	RFLAGS uint64
	RSP    uint64
	SS     uint64
}

// TrapFrame is the complete stack image seen by the dispatcher.
//
// The entry stub pushes ErrorCode (zero when the CPU pushes none) and
// Vector; the common path saves Registers below them. Handlers may modify
// Registers and InterruptFrame; the changes take effect on return.
type TrapFrame struct {
	Registers
	Vector    Vector
	ErrorCode uint64
	InterruptFrame
}

// DumpTo writes the interrupt frame to w.
func (f *InterruptFrame) DumpTo(w io.Writer) {
	fmt.Fprintf(w, "RIP = %016x CS  = %016x\n", f.RIP, f.CS)
	fmt.Fprintf(w, "RSP = %016x SS  = %016x\n", f.RSP, f.SS)
	fmt.Fprintf(w, "RFL = %016x\n", f.RFLAGS)
}

// DumpTo writes the register contents to w.
func (r *Registers) DumpTo(w io.Writer) {
	fmt.Fprintf(w, "RAX = %016x RBX = %016x\n", r.RAX, r.RBX)
	fmt.Fprintf(w, "RCX = %016x RDX = %016x\n", r.RCX, r.RDX)
	fmt.Fprintf(w, "RSI = %016x RDI = %016x\n", r.RSI, r.RDI)
	fmt.Fprintf(w, "RBP = %016x\n", r.RBP)
	fmt.Fprintf(w, "R8  = %016x R9  = %016x\n", r.R8, r.R9)
	fmt.Fprintf(w, "R10 = %016x R11 = %016x\n", r.R10, r.R11)
	fmt.Fprintf(w, "R12 = %016x R13 = %016x\n", r.R12, r.R13)
	fmt.Fprintf(w, "R14 = %016x R15 = %016x\n", r.R14, r.R15)
}

// DumpTo writes the whole frame to w.
func (tf *TrapFrame) DumpTo(w io.Writer) {
	tf.InterruptFrame.DumpTo(w)
	fmt.Fprintf(w, "\n")
	tf.Registers.DumpTo(w)
}
