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

package portio

// Native issues real IN/OUT instructions. It requires ring 0 (or an IOPL
// that grants the ports).
type Native struct{}

// In8 implements Bus.In8.
//
//go:nosplit
func (Native) In8(port uint16) uint8 { return inb(port) }

// In16 implements Bus.In16.
//
//go:nosplit
func (Native) In16(port uint16) uint16 { return inw(port) }

// In32 implements Bus.In32.
//
//go:nosplit
func (Native) In32(port uint16) uint32 { return inl(port) }

// Out8 implements Bus.Out8.
//
//go:nosplit
func (Native) Out8(port uint16, v uint8) { outb(port, v) }

// Out16 implements Bus.Out16.
//
//go:nosplit
func (Native) Out16(port uint16, v uint16) { outw(port, v) }

// Out32 implements Bus.Out32.
//
//go:nosplit
func (Native) Out32(port uint16, v uint32) { outl(port, v) }

// These are assembly functions.
func inb(port uint16) uint8
func inw(port uint16) uint16
func inl(port uint16) uint32
func outb(port uint16, v uint8)
func outw(port uint16, v uint16)
func outl(port uint16, v uint32)
