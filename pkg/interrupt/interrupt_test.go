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

package interrupt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"kcore.dev/kcore/pkg/ring0"
)

type fakePIC struct {
	acks []int
	isr  uint16
}

func (p *fakePIC) Ack(irq int)  { p.acks = append(p.acks, irq) }
func (p *fakePIC) ISR() uint16 { return p.isr }

// halted stops the halt loop in tests.
type halted struct{}

func newTestRegistry() (*Registry, *bytes.Buffer, *fakePIC) {
	var out bytes.Buffer
	pic := &fakePIC{}
	r := New(&out, pic)
	r.SetHalt(func() { panic(halted{}) })
	r.SetFaultAddress(func() uintptr { return 0xdeadb000 })
	return r, &out, pic
}

// dispatchHalts dispatches tf and reports whether the registry halted.
func dispatchHalts(r *Registry, tf *ring0.TrapFrame) (didHalt bool) {
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(halted); !ok {
				panic(v)
			}
			didHalt = true
		}
	}()
	r.Dispatch(tf)
	return false
}

func TestFatalReportsAndHalts(t *testing.T) {
	r, out, pic := newTestRegistry()
	r.Fatal(ring0.DivideByZero, "DIVIDE BY ZERO")

	tf := &ring0.TrapFrame{Vector: ring0.DivideByZero}
	tf.RIP = 0xffffffff80001234
	if !dispatchHalts(r, tf) {
		t.Fatalf("fatal vector did not halt")
	}
	if want := "EXCEPTION: DIVIDE BY ZERO at instruction 0xffffffff80001234 (vector 0)\n"; !strings.HasPrefix(out.String(), want) {
		t.Errorf("report = %q, want prefix %q", out.String(), want)
	}
	if strings.Contains(out.String(), "error code") {
		t.Errorf("report for vector 0 has an error code:\n%s", out.String())
	}
	if len(pic.acks) != 0 {
		t.Errorf("fatal vector acknowledged the PIC: %v", pic.acks)
	}
}

func TestPageFaultReport(t *testing.T) {
	r, out, _ := newTestRegistry()
	r.Fatal(ring0.PageFault, "PAGE FAULT")
	tf := &ring0.TrapFrame{Vector: ring0.PageFault, ErrorCode: PageFaultWrite | PageFaultUser}
	if !dispatchHalts(r, tf) {
		t.Fatalf("page fault did not halt")
	}
	for _, want := range []string{
		"EXCEPTION: PAGE FAULT",
		"error code 0x6: ATTEMPTED TO WRITE\n",
		"fault address 0xdeadb000\n",
		"RIP = ",
		"RAX = ",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestGeneralProtectionReportsCode(t *testing.T) {
	r, out, _ := newTestRegistry()
	r.Fatal(ring0.GeneralProtectionFault, "GPF")
	if !dispatchHalts(r, &ring0.TrapFrame{Vector: ring0.GeneralProtectionFault, ErrorCode: 0x10}) {
		t.Fatalf("GPF did not halt")
	}
	if !strings.Contains(out.String(), "error code 0x10\n") {
		t.Errorf("report missing error code:\n%s", out.String())
	}
}

func TestBenignReturns(t *testing.T) {
	r, out, pic := newTestRegistry()
	r.Benign(ring0.Breakpoint, "BREAKPOINT")
	if dispatchHalts(r, &ring0.TrapFrame{Vector: ring0.Breakpoint}) {
		t.Fatalf("benign vector halted")
	}
	if out.Len() != 0 {
		t.Errorf("benign vector wrote in interrupt context: %q", out.String())
	}
	r.Flush()
	if !strings.HasPrefix(out.String(), "EXCEPTION: BREAKPOINT at instruction") {
		t.Errorf("report = %q", out.String())
	}
	if len(pic.acks) != 0 {
		t.Errorf("benign vector acknowledged the PIC: %v", pic.acks)
	}

	// A second flush has nothing left to write.
	out.Reset()
	r.Flush()
	if out.Len() != 0 {
		t.Errorf("second Flush wrote %q", out.String())
	}
}

func TestBenignQueueCopiesFrame(t *testing.T) {
	r, out, _ := newTestRegistry()
	r.Benign(ring0.Breakpoint, "BREAKPOINT")
	r.Benign(ring0.Debug, "DEBUG")

	tf := &ring0.TrapFrame{Vector: ring0.Breakpoint}
	tf.RIP = 0x1000
	r.Dispatch(tf)
	// The trampoline reuses its frame; the queued report must not.
	tf.Vector, tf.RIP = ring0.Debug, 0x2000
	r.Dispatch(tf)
	r.Flush()

	want := []string{
		"EXCEPTION: BREAKPOINT at instruction 0x1000 (vector 3)",
		"EXCEPTION: DEBUG at instruction 0x2000 (vector 1)",
	}
	var got []string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "EXCEPTION: ") {
			got = append(got, line)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reports mismatch (-want +got):\n%s", diff)
	}
}

func TestBenignQueueOverflow(t *testing.T) {
	r, out, _ := newTestRegistry()
	r.Benign(ring0.Breakpoint, "BREAKPOINT")
	for i := 0; i < MaxQueued+3; i++ {
		r.Dispatch(&ring0.TrapFrame{Vector: ring0.Breakpoint})
	}
	r.Flush()
	if got := strings.Count(out.String(), "EXCEPTION: BREAKPOINT"); got != MaxQueued {
		t.Errorf("Flush wrote %d reports, want %d", got, MaxQueued)
	}
	if !strings.Contains(out.String(), "(3 exception reports dropped)\n") {
		t.Errorf("Flush did not count the dropped reports:\n%s", out.String())
	}

	// The queue is usable again after a flush.
	out.Reset()
	r.Dispatch(&ring0.TrapFrame{Vector: ring0.Breakpoint})
	r.Flush()
	if got := strings.Count(out.String(), "EXCEPTION: BREAKPOINT"); got != 1 {
		t.Errorf("Flush after overflow wrote %d reports, want 1", got)
	}
}

func TestFatalFlushesQueue(t *testing.T) {
	r, out, _ := newTestRegistry()
	r.Benign(ring0.Breakpoint, "BREAKPOINT")
	r.Fatal(ring0.DoubleFault, "DOUBLE FAULT")
	r.Dispatch(&ring0.TrapFrame{Vector: ring0.Breakpoint})
	if !dispatchHalts(r, &ring0.TrapFrame{Vector: ring0.DoubleFault}) {
		t.Fatalf("double fault did not halt")
	}
	s := out.String()
	bp, df := strings.Index(s, "EXCEPTION: BREAKPOINT"), strings.Index(s, "EXCEPTION: DOUBLE FAULT")
	if bp < 0 || df < 0 || bp > df {
		t.Errorf("queued report not written before the fatal one:\n%s", s)
	}
}

func TestUnregisteredIsFatal(t *testing.T) {
	r, out, _ := newTestRegistry()
	if !dispatchHalts(r, &ring0.TrapFrame{Vector: 0x55}) {
		t.Fatalf("unregistered vector did not halt")
	}
	if !strings.HasPrefix(out.String(), "EXCEPTION: UNHANDLED EXCEPTION") {
		t.Errorf("report = %q", out.String())
	}
}

func TestDefaultName(t *testing.T) {
	r, out, _ := newTestRegistry()
	r.Fatal(ring0.InvalidOpcode, "")
	dispatchHalts(r, &ring0.TrapFrame{Vector: ring0.InvalidOpcode})
	if !strings.HasPrefix(out.String(), "EXCEPTION: INVALID OPCODE") {
		t.Errorf("report = %q", out.String())
	}
}

func TestServiceAcksAfterBody(t *testing.T) {
	r, out, pic := newTestRegistry()
	var order []string
	r.Service(32, 0, "timer", Handler(func(*ring0.TrapFrame) {
		order = append(order, "body")
		if len(pic.acks) != 0 {
			t.Errorf("acknowledged before the body ran")
		}
	}))
	r.Service(44, 12, "mouse", nil)

	r.Dispatch(&ring0.TrapFrame{Vector: 32})
	r.Dispatch(&ring0.TrapFrame{Vector: 44})

	if diff := cmp.Diff([]string{"body"}, order); diff != "" {
		t.Errorf("body calls mismatch (-want +got):\n%s", diff)
	}
	// Raw IRQ lines, not vectors.
	if diff := cmp.Diff([]int{0, 12}, pic.acks); diff != "" {
		t.Errorf("acks mismatch (-want +got):\n%s", diff)
	}
	if out.Len() != 0 {
		t.Errorf("service vector wrote a report: %q", out.String())
	}
}

func TestSpurious(t *testing.T) {
	for _, tc := range []struct {
		name     string
		irq      int
		isr      uint16
		wantAcks []int
		wantBody bool
		spurious uint32
	}{
		{"master spurious", 7, 0, nil, false, 1},
		{"master real", 7, 1 << 7, []int{7}, true, 0},
		{"slave spurious", 15, 0, []int{cascade}, false, 1},
		{"slave real", 15, 1 << 15, []int{15}, true, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, out, pic := newTestRegistry()
			pic.isr = tc.isr
			ran := false
			r.Spurious(ring0.Vector(32+tc.irq), tc.irq, Handler(func(*ring0.TrapFrame) { ran = true }))
			r.Dispatch(&ring0.TrapFrame{Vector: ring0.Vector(32 + tc.irq)})
			if diff := cmp.Diff(tc.wantAcks, pic.acks); diff != "" {
				t.Errorf("acks mismatch (-want +got):\n%s", diff)
			}
			if ran != tc.wantBody {
				t.Errorf("body ran = %t, want %t", ran, tc.wantBody)
			}
			if got := r.SpuriousCount(); got != tc.spurious {
				t.Errorf("SpuriousCount() = %d, want %d", got, tc.spurious)
			}
			// Spurious IRQs are logged by Flush, never written to the sink.
			r.Flush()
			if out.Len() != 0 {
				t.Errorf("spurious IRQ wrote to the sink: %q", out.String())
			}
		})
	}
}

func TestSpuriousRejectsOtherLines(t *testing.T) {
	r, _, _ := newTestRegistry()
	defer func() {
		if recover() == nil {
			t.Errorf("Spurious(IRQ 3) did not panic")
		}
	}()
	r.Spurious(35, 3, nil)
}

func TestWrappers(t *testing.T) {
	tf := &ring0.TrapFrame{ErrorCode: 0x1b}
	tf.RIP = 0x1000

	var rip, code uint64
	WithoutCode(func(f *ring0.InterruptFrame) { rip = f.RIP })(tf)
	if rip != 0x1000 {
		t.Errorf("WithoutCode handler saw RIP %#x, want 0x1000", rip)
	}

	type pageFaultHandler func(*ring0.InterruptFrame, uint64)
	var h pageFaultHandler = func(f *ring0.InterruptFrame, c uint64) {
		rip, code = f.RIP+1, c
	}
	WithCode(h)(tf)
	if rip != 0x1001 || code != 0x1b {
		t.Errorf("WithCode handler saw RIP %#x code %#x", rip, code)
	}

	// Handlers may rewrite the frame to resume elsewhere.
	WithoutCode(func(f *ring0.InterruptFrame) { f.RIP = 0x2000 })(tf)
	if tf.RIP != 0x2000 {
		t.Errorf("frame write did not reach the trap frame")
	}
}

func TestClass(t *testing.T) {
	r, _, _ := newTestRegistry()
	r.Fatal(ring0.DoubleFault, "DOUBLE FAULT")
	r.Benign(ring0.Debug, "DEBUG")
	r.Service(33, 1, "keyboard", nil)
	for _, tc := range []struct {
		v    ring0.Vector
		want Class
	}{
		{ring0.DoubleFault, Fatal},
		{ring0.Debug, Benign},
		{33, Service},
		{200, Unregistered},
	} {
		if got, _ := r.Class(tc.v); got != tc.want {
			t.Errorf("Class(%d) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestPageFaultCause(t *testing.T) {
	for _, tc := range []struct {
		code uint64
		want string
	}{
		{0, "PAGE NOT PRESENT"},
		{PageFaultProtection, "PROTECTION VIOLATION"},
		{PageFaultWrite, "ATTEMPTED TO WRITE"},
		{PageFaultUser, "USER MODE"},
		{PageFaultReserved, "ERROR IN TABLE"},
		{PageFaultFetch, "INSTRUCTION FETCH"},
		{PageFaultProtection | PageFaultWrite | PageFaultUser, "PROTECTION VIOLATION"},
		{PageFaultUser | PageFaultFetch, "USER MODE"},
		{PageFaultReserved | PageFaultFetch, "ERROR IN TABLE"},
		{1 << 5, "UNKNOWN ERROR"},
	} {
		if got := PageFaultCause(tc.code); got != tc.want {
			t.Errorf("PageFaultCause(%#x) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
