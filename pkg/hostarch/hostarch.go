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

// Package hostarch contains architecture-specific definitions for amd64
// addresses and page sizes.
package hostarch

import "fmt"

// Page sizes. The MMU walks four levels of 512-entry tables; every level
// above the last may map a larger page directly.
const (
	PageShift = 12
	PageSize  = 1 << PageShift

	HugePageShift = 21
	HugePageSize  = 1 << HugePageShift

	GiantPageShift = 30
	GiantPageSize  = 1 << GiantPageShift

	// EntriesPerTable is the number of entries in a table at any level.
	EntriesPerTable = 512
)

// Canonical address bounds for 48-bit virtual addresses.
const (
	LowerTop    = 0x00007fffffffffff
	UpperBottom = 0xffff800000000000
)

// Addr represents an address in an unspecified address space.
type Addr uintptr

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return v & ^Addr(PageSize-1)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	addr = Addr(v + PageSize - 1).RoundDown()
	ok = addr >= v
	return
}

// PageOffset returns the offset of v into the current page.
func (v Addr) PageOffset() uint64 {
	return uint64(v & Addr(PageSize-1))
}

// IsPageAligned returns true if v.PageOffset() == 0.
func (v Addr) IsPageAligned() bool {
	return v.PageOffset() == 0
}

// IsCanonical returns true if v lies in the low or the high half of the
// 48-bit address space, i.e. bits 48-63 are copies of bit 47.
func (v Addr) IsCanonical() bool {
	return v <= LowerTop || v >= UpperBottom
}

// Canonicalize returns v with bit 47 sign-extended into bits 48-63.
func Canonicalize(v uint64) Addr {
	return Addr(uint64(int64(v<<16) >> 16))
}

// String implements fmt.Stringer.String.
func (v Addr) String() string {
	return fmt.Sprintf("%#x", uintptr(v))
}
