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

package portiotest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"kcore.dev/kcore/pkg/portio"
)

var _ portio.Bus = (*Bus)(nil)

func TestLatchAndRecord(t *testing.T) {
	b := New()
	b.Out8(0x21, 0xfc)
	if got := b.In8(0x21); got != 0xfc {
		t.Errorf("In8(0x21) = %#x, want 0xfc", got)
	}
	b.Set(0x60, 0x1e)
	if got := b.In8(0x60); got != 0x1e {
		t.Errorf("In8(0x60) = %#x, want 0x1e", got)
	}
	want := []Op{Out8(0x21, 0xfc), In8(0x21, 0xfc), In8(0x60, 0x1e)}
	if diff := cmp.Diff(want, b.Ops()); diff != "" {
		t.Errorf("Ops() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHook(t *testing.T) {
	b := New()
	n := uint32(0)
	b.OnRead(0x20, func() uint32 {
		n++
		return 0x1ff + n
	})
	if got := b.In8(0x20); got != 0x00 {
		t.Errorf("first In8 = %#x, want truncated 0x00", got)
	}
	if got := b.In16(0x20); got != 0x201 {
		t.Errorf("second In16 = %#x, want 0x201", got)
	}
	b.OnRead(0x20, nil)
	if got := b.In8(0x20); got != 0 {
		t.Errorf("In8 after hook removal = %#x, want 0", got)
	}
}

func TestWritesTo(t *testing.T) {
	var b Bus
	b.Out8(0x43, 0x36)
	b.Out8(0x40, 0xa9)
	b.In8(0x40)
	b.Out8(0x40, 0x04)
	if diff := cmp.Diff([]uint32{0xa9, 0x04}, b.WritesTo(0x40)); diff != "" {
		t.Errorf("WritesTo mismatch (-want +got):\n%s", diff)
	}
	if got := len(b.Writes()); got != 3 {
		t.Errorf("len(Writes()) = %d, want 3", got)
	}
	b.Reset()
	if got := b.Ops(); len(got) != 0 {
		t.Errorf("Ops() after Reset = %v, want empty", got)
	}
}

func TestExitEmulator(t *testing.T) {
	b := New()
	portio.ExitEmulator(b, 0x10)
	if diff := cmp.Diff([]Op{Out32(portio.DebugExitPort, 0x10)}, b.Ops()); diff != "" {
		t.Errorf("ExitEmulator mismatch (-want +got):\n%s", diff)
	}
}
