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

package kernel

import (
	"io"

	"kcore.dev/kcore/pkg/pit"
	"kcore.dev/kcore/pkg/ring0"
)

// The service bodies below run in interrupt context. They are nosplit
// and work on buffers allocated at boot.

// timerDevice counts PIT ticks.
type timerDevice struct {
	timer *pit.Timer
}

// Interrupt implements interrupt.Device.Interrupt.
//
//go:nosplit
func (d *timerDevice) Interrupt(*ring0.TrapFrame) {
	d.timer.Tick()
}

// echoDevice copies each character from src to out.
type echoDevice struct {
	src CharSource
	out io.Writer
	buf [1]byte
}

// Interrupt implements interrupt.Device.Interrupt.
//
//go:nosplit
func (d *echoDevice) Interrupt(*ring0.TrapFrame) {
	if c, ok := d.src.ReadChar(); ok {
		d.buf[0] = c
		d.out.Write(d.buf[:])
	}
}

// serialPrefix precedes every character received on COM1.
const serialPrefix = "COM1 INPUT RECEIVED: "

// serialDevice announces each character received on the serial line.
type serialDevice struct {
	src CharSource
	out io.Writer

	// msg is serialPrefix followed by the received character.
	msg [len(serialPrefix) + 1]byte
}

func newSerialDevice(src CharSource, out io.Writer) *serialDevice {
	d := &serialDevice{src: src, out: out}
	copy(d.msg[:], serialPrefix)
	return d
}

// Interrupt implements interrupt.Device.Interrupt.
//
//go:nosplit
func (d *serialDevice) Interrupt(*ring0.TrapFrame) {
	if c, ok := d.src.ReadChar(); ok {
		d.msg[len(serialPrefix)] = c
		d.out.Write(d.msg[:])
	}
}
