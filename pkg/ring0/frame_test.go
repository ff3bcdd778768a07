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
	"bytes"
	"strings"
	"testing"
	"unsafe"
)

// The trampoline addresses these fields by fixed offsets.
func TestTrapFrameLayout(t *testing.T) {
	var tf TrapFrame
	for _, tc := range []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"RAX", unsafe.Offsetof(tf.RAX), 0},
		{"RBP", unsafe.Offsetof(tf.RBP), 48},
		{"R15", unsafe.Offsetof(tf.R15), 112},
		{"Vector", unsafe.Offsetof(tf.Vector), 120},
		{"ErrorCode", unsafe.Offsetof(tf.ErrorCode), 128},
		{"InterruptFrame", unsafe.Offsetof(tf.InterruptFrame), 136},
		{"size", unsafe.Sizeof(tf), 176},
	} {
		if tc.got != tc.want {
			t.Errorf("%s offset = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
}

func TestTrapFrameDump(t *testing.T) {
	tf := TrapFrame{
		Registers:      Registers{RAX: 0x1, R15: 0xf},
		InterruptFrame: InterruptFrame{RIP: 0xffffffff80001234, CS: 0x8},
	}
	var buf bytes.Buffer
	tf.DumpTo(&buf)
	for _, want := range []string{
		"RIP = ffffffff80001234 CS  = 0000000000000008\n",
		"RAX = 0000000000000001",
		"R15 = 000000000000000f\n",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("dump missing %q:\n%s", want, buf.String())
		}
	}
}

type recorder struct {
	seen Vector
}

func (r *recorder) Dispatch(tf *TrapFrame) {
	r.seen = tf.Vector
}

func TestDispatch(t *testing.T) {
	defer SetDispatcher(nil)

	SetDispatcher(nil)
	before := Unhandled()
	dispatch(&TrapFrame{})
	if got := Unhandled(); got != before+1 {
		t.Errorf("Unhandled() = %d, want %d", got, before+1)
	}

	r := &recorder{}
	SetDispatcher(r)
	dispatch(&TrapFrame{Vector: PageFault})
	if r.seen != PageFault {
		t.Errorf("dispatcher saw %v, want %v", r.seen, PageFault)
	}
	if got := Unhandled(); got != before+1 {
		t.Errorf("Unhandled() = %d after a dispatched trap, want %d", got, before+1)
	}
}

func TestVector(t *testing.T) {
	for v := Vector(0); v < NumVectors; v++ {
		want := false
		switch v {
		case 8, 10, 11, 12, 13, 14, 17, 30:
			want = true
		}
		if got := v.HasErrorCode(); got != want {
			t.Errorf("Vector(%d).HasErrorCode() = %t, want %t", v, got, want)
		}
	}
	if got := PageFault.String(); got != "page fault" {
		t.Errorf("PageFault.String() = %q", got)
	}
	if got := Vector(33).String(); got != "vector 33" {
		t.Errorf("Vector(33).String() = %q", got)
	}
	if !GeneralProtectionFault.IsException() || FirstExternal.IsException() {
		t.Errorf("IsException boundary wrong")
	}
}
