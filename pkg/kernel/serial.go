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

import "kcore.dev/kcore/pkg/portio"

// COM1 is the base port of the first serial line.
const COM1 = 0x3f8

// UART register offsets from the base port.
const (
	uartData        = 0 // Data, or divisor low byte with DLAB set.
	uartIntEnable   = 1 // Interrupt enable, or divisor high byte with DLAB set.
	uartFIFOControl = 2
	uartLineControl = 3
	uartModemCtrl   = 4
	uartLineStatus  = 5
)

// Line status bits.
const (
	lsrDataReady = 1 << 0
	lsrTHREmpty  = 1 << 5
)

// Serial is a 16550 UART.
type Serial struct {
	bus  portio.Bus
	base uint16
}

// NewSerial returns the UART at base on bus. The hardware is not touched
// until Init.
func NewSerial(bus portio.Bus, base uint16) *Serial {
	return &Serial{bus: bus, base: base}
}

// Init programs 38400 baud, 8N1, FIFOs with a 14 byte threshold, and
// enables the received data interrupt.
func (s *Serial) Init() {
	s.bus.Out8(s.base+uartIntEnable, 0x00)
	s.bus.Out8(s.base+uartLineControl, 0x80) // DLAB
	s.bus.Out8(s.base+uartData, 0x03)        // Divisor 3.
	s.bus.Out8(s.base+uartIntEnable, 0x00)
	s.bus.Out8(s.base+uartLineControl, 0x03)
	s.bus.Out8(s.base+uartFIFOControl, 0xc7)
	s.bus.Out8(s.base+uartModemCtrl, 0x0b) // DTR, RTS, OUT2.
	s.bus.Out8(s.base+uartIntEnable, 0x01)
}

// ReadChar returns the received byte, if there is one.
//
//go:nosplit
func (s *Serial) ReadChar() (byte, bool) {
	if s.bus.In8(s.base+uartLineStatus)&lsrDataReady == 0 {
		return 0, false
	}
	return s.bus.In8(s.base + uartData), true
}

// Write implements io.Writer. It spins on the transmit holding register for
// every byte.
//
//go:nosplit
func (s *Serial) Write(p []byte) (int, error) {
	for _, c := range p {
		for s.bus.In8(s.base+uartLineStatus)&lsrTHREmpty == 0 {
		}
		s.bus.Out8(s.base+uartData, c)
	}
	return len(p), nil
}
