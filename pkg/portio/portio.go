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

// Package portio provides access to the x86 I/O port address space.
//
// Drivers never issue IN/OUT themselves. They are handed a Bus, which is
// the machine's ports in the kernel (Native), /dev/port on a Linux host
// (DevPort), or a recording fake in tests (portiotest.Bus).
package portio

// Bus reads and writes I/O ports.
//
// Widths are exact: an 8-bit register must be accessed with In8/Out8, since
// legacy devices latch on the access width.
type Bus interface {
	In8(port uint16) uint8
	In16(port uint16) uint16
	In32(port uint16) uint32
	Out8(port uint16, v uint8)
	Out16(port uint16, v uint16)
	Out32(port uint16, v uint32)
}

// SettleIterations is the length of the delay issued between consecutive
// writes to slow legacy devices.
const SettleIterations = 150

// QEMU isa-debug-exit device, present when the emulator is started with
// -device isa-debug-exit,iobase=0xf4,iosize=0x04.
const DebugExitPort = 0xf4

// spin is written on every iteration so the delay loop cannot be removed.
var spin uint32

// Wait busy-waits long enough for a legacy device to absorb a write.
//
//go:nosplit
func Wait() {
	WaitFor(SettleIterations)
}

// WaitFor busy-waits for n iterations.
//
//go:nosplit
func WaitFor(n int) {
	for i := 0; i < n; i++ {
		spin++
	}
}

// ExitEmulator asks QEMU to exit with status (code << 1) | 1. On real
// hardware the write is ignored.
func ExitEmulator(b Bus, code uint32) {
	b.Out32(DebugExitPort, code)
}
