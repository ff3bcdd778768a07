// Copyright 2018 Google LLC
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

// Package bits includes non-atomic bit operations on the fixed-width
// integers found in descriptor tables, controller registers and page table
// entries.
package bits

import "math/bits"

// Unsigned is any fixed-width unsigned integer type.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// IsOn returns true if *all* bits set in 'bits' are set in 'mask'.
func IsOn[T Unsigned](mask, bits T) bool {
	return mask&bits == bits
}

// IsAnyOn returns true if *any* bit set in 'bits' is set in 'mask'.
func IsAnyOn[T Unsigned](mask, bits T) bool {
	return mask&bits != 0
}

// Mask returns a T with all of the given bits set.
func Mask[T Unsigned](is ...int) T {
	ret := T(0)
	for _, i := range is {
		ret |= MaskOf[T](i)
	}
	return ret
}

// MaskOf is like Mask, but sets only a single bit (more efficiently).
func MaskOf[T Unsigned](i int) T {
	return T(1) << uint(i)
}

// Fits returns true if v can be represented in width bits.
func Fits[T Unsigned](v T, width int) bool {
	return uint64(v)>>uint(width) == 0
}

// Field extracts the width-bit field of v starting at bit shift.
func Field(v uint64, shift, width int) uint64 {
	return (v >> uint(shift)) & (1<<uint(width) - 1)
}

// ForEachSetBit calls f once for each set bit in x, with argument i equal to
// the set bit's index, in increasing order.
func ForEachSetBit(x uint64, f func(i int)) {
	for x != 0 {
		i := bits.TrailingZeros64(x)
		f(i)
		x &^= MaskOf[uint64](i)
	}
}
