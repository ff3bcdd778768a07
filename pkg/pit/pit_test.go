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

package pit

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"kcore.dev/kcore/pkg/portio/portiotest"
)

func TestDivisor(t *testing.T) {
	for _, tc := range []struct {
		hz   uint32
		want uint16
	}{
		{1000, 1193},
		{100, 11931},
		{MinRate, BaseFrequency / MinRate},
		{BaseFrequency, 1},
	} {
		if got := Divisor(tc.hz); got != tc.want {
			t.Errorf("Divisor(%d) = %d, want %d", tc.hz, got, tc.want)
		}
	}
}

func TestDivisorOutOfRange(t *testing.T) {
	for _, hz := range []uint32{0, 1, MinRate - 1, BaseFrequency + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Divisor(%d) did not panic", hz)
				}
			}()
			Divisor(hz)
		}()
	}
}

func TestSetRate(t *testing.T) {
	bus := portiotest.New()
	tm := New(bus)
	tm.SetRate(1000)

	want := []portiotest.Op{
		portiotest.Out8(Command, 0x36),
		portiotest.Out8(Channel0, 1193&0xff),
		portiotest.Out8(Channel0, (1193>>8)&0xff),
	}
	if diff := cmp.Diff(want, bus.Ops()); diff != "" {
		t.Errorf("SetRate writes mismatch (-want +got):\n%s", diff)
	}
	if got := tm.Rate(); got != 1000 {
		t.Errorf("Rate() = %d, want 1000", got)
	}
}

func TestTickWraps(t *testing.T) {
	tm := New(portiotest.New())
	tm.ticks.Store(TickWrap - 2)
	tm.Tick()
	if got := tm.Ticks(); got != TickWrap-1 {
		t.Errorf("Ticks() = %#x, want %#x", got, uint32(TickWrap-1))
	}
	tm.Tick()
	if got := tm.Ticks(); got != 0 {
		t.Errorf("Ticks() after wrap = %#x, want 0", got)
	}
}

func TestWaitZero(t *testing.T) {
	tm := New(portiotest.New())
	tm.SetRelax(func() { t.Fatalf("Wait(0) spun") })
	tm.ticks.Store(5)
	tm.Wait(0)
	if got := tm.Ticks(); got != 0 {
		t.Errorf("Ticks() after Wait(0) = %d, want 0", got)
	}
}

func TestWaitResets(t *testing.T) {
	tm := New(portiotest.New())
	// Each relax delivers one timer interrupt.
	spins := 0
	tm.SetRelax(func() {
		spins++
		tm.Tick()
	})
	tm.Wait(10)
	if spins != 10 {
		t.Errorf("Wait(10) spun %d times, want 10", spins)
	}
	if got := tm.Ticks(); got != 0 {
		t.Errorf("Ticks() after Wait = %d, want 0", got)
	}
}

func TestWaitConcurrentTicker(t *testing.T) {
	tm := New(portiotest.New())
	tm.SetRelax(nil)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				tm.Tick()
				time.Sleep(10 * time.Microsecond)
			}
		}
	}()
	tm.Wait(20)
	close(stop)
}
