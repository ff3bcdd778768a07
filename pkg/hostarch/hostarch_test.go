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

package hostarch

import "testing"

func TestCanonical(t *testing.T) {
	for _, tc := range []struct {
		addr Addr
		want bool
	}{
		{0, true},
		{LowerTop, true},
		{LowerTop + 1, false},
		{0x0000_8000_0000_0000, false},
		{0xffff_7fff_ffff_ffff, false},
		{UpperBottom, true},
		{0xffff_ffff_ffff_f000, true},
	} {
		if got := tc.addr.IsCanonical(); got != tc.want {
			t.Errorf("%v.IsCanonical() = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	if got, want := Canonicalize(0x0000_ff80_0000_0000), Addr(0xffff_ff80_0000_0000); got != want {
		t.Errorf("Canonicalize() = %v, want %v", got, want)
	}
	if got, want := Canonicalize(0x0000_7f00_0000_0000), Addr(0x0000_7f00_0000_0000); got != want {
		t.Errorf("Canonicalize() = %v, want %v", got, want)
	}
}

func TestRound(t *testing.T) {
	if got, want := Addr(0x1234).RoundDown(), Addr(0x1000); got != want {
		t.Errorf("RoundDown() = %v, want %v", got, want)
	}
	if got, ok := Addr(0x1001).RoundUp(); !ok || got != 0x2000 {
		t.Errorf("RoundUp() = %v, %v, want 0x2000, true", got, ok)
	}
	if _, ok := Addr(^uintptr(0)).RoundUp(); ok {
		t.Errorf("RoundUp() of the last byte did not report wrap-around")
	}
	if !Addr(0x5000).IsPageAligned() || Addr(0x5008).IsPageAligned() {
		t.Errorf("IsPageAligned() mismatch")
	}
}
