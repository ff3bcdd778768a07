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

// Package pic drives the cascaded pair of 8259A programmable interrupt
// controllers.
//
// The controller state lives in the hardware. It is written during boot,
// before interrupts are enabled, and acknowledged from interrupt context;
// the two never overlap on a single CPU, so there is no locking.
package pic

import (
	"fmt"

	"kcore.dev/kcore/pkg/bits"
	"kcore.dev/kcore/pkg/portio"
)

// Ports.
const (
	MasterCommand uint16 = 0x20
	MasterData    uint16 = 0x21
	SlaveCommand  uint16 = 0xa0
	SlaveData     uint16 = 0xa1
)

// Command words.
const (
	eoi = 0x20

	icw1ICW4 = 0x01 // ICW4 follows.
	icw1Init = 0x10 // Start initialization.

	icw4Mode8086 = 0x01

	ocw3ReadIRR = 0x0a
	ocw3ReadISR = 0x0b
)

const (
	// NumIRQs is the number of lines over both controllers.
	NumIRQs = 16

	// Cascade is the master line the slave is wired to.
	Cascade = 2

	// Default vector offsets: IRQ 0-7 at 32-39, IRQ 8-15 at 40-47.
	DefaultMasterOffset = 32
	DefaultSlaveOffset  = 40

	// allMasked is a mask register with every line disabled.
	allMasked = 0xff
)

// Controller is the PIC pair.
type Controller struct {
	bus portio.Bus

	// settle is called after every initialization write.
	settle func()

	masterOffset uint8
	slaveOffset  uint8
}

// New returns a controller on bus with the default offsets. The hardware
// is not touched until Init.
func New(bus portio.Bus) *Controller {
	return &Controller{
		bus:          bus,
		settle:       portio.Wait,
		masterOffset: DefaultMasterOffset,
		slaveOffset:  DefaultSlaveOffset,
	}
}

// Init remaps the controllers so that IRQ 0-7 raise masterOffset+irq and
// IRQ 8-15 raise slaveOffset+irq-8, then masks every line.
//
// The handshake is four pairs of writes (ICW1 through ICW4, master then
// slave), each followed by a settle delay. Interrupts must be disabled.
func (c *Controller) Init(masterOffset, slaveOffset uint8) {
	c.masterOffset, c.slaveOffset = masterOffset, slaveOffset

	for _, w := range []struct {
		port uint16
		v    uint8
	}{
		{MasterCommand, icw1Init | icw1ICW4},
		{SlaveCommand, icw1Init | icw1ICW4},
		{MasterData, masterOffset},
		{SlaveData, slaveOffset},
		{MasterData, 1 << Cascade}, // Slave attached at IRQ 2.
		{SlaveData, Cascade},       // Slave cascade identity.
		{MasterData, icw4Mode8086},
		{SlaveData, icw4Mode8086},
	} {
		c.bus.Out8(w.port, w.v)
		c.settle()
	}

	c.bus.Out8(MasterData, allMasked)
	c.bus.Out8(SlaveData, allMasked)
}

// Offsets returns the configured vector offsets.
func (c *Controller) Offsets() (master, slave uint8) {
	return c.masterOffset, c.slaveOffset
}

// Vector returns the vector irq is delivered on.
func (c *Controller) Vector(irq int) uint8 {
	if irq < 8 {
		return c.masterOffset + uint8(irq)
	}
	return c.slaveOffset + uint8(irq-8)
}

// IRQ returns the line delivered on vector, if any.
func (c *Controller) IRQ(vector uint8) (int, bool) {
	switch {
	case vector >= c.masterOffset && vector < c.masterOffset+8:
		return int(vector - c.masterOffset), true
	case vector >= c.slaveOffset && vector < c.slaveOffset+8:
		return int(vector-c.slaveOffset) + 8, true
	default:
		return 0, false
	}
}

// dataPort returns the mask register and bit for irq.
func dataPort(irq int) (uint16, uint8, bool) {
	switch {
	case irq >= 0 && irq < 8:
		return MasterData, uint8(irq), true
	case irq >= 8 && irq < NumIRQs:
		return SlaveData, uint8(irq - 8), true
	default:
		return 0, 0, false
	}
}

// SetMask disables (masked) or enables one line. Other lines are left
// unchanged. Invalid lines are ignored.
func (c *Controller) SetMask(irq int, masked bool) {
	port, bit, ok := dataPort(irq)
	if !ok {
		return
	}
	v := c.bus.In8(port)
	if masked {
		v |= bits.MaskOf[uint8](int(bit))
	} else {
		v &^= bits.MaskOf[uint8](int(bit))
	}
	c.bus.Out8(port, v)
}

// Mask disables irq.
func (c *Controller) Mask(irq int) {
	c.SetMask(irq, true)
}

// Unmask enables irq.
func (c *Controller) Unmask(irq int) {
	c.SetMask(irq, false)
}

// Masks returns both mask registers, slave in the high byte.
func (c *Controller) Masks() uint16 {
	return uint16(c.bus.In8(SlaveData))<<8 | uint16(c.bus.In8(MasterData))
}

// Disable masks every line on both controllers.
func (c *Controller) Disable() {
	c.bus.Out8(MasterData, allMasked)
	c.bus.Out8(SlaveData, allMasked)
}

// Ack signals end of interrupt for irq.
//
// The slave is acknowledged only for its own lines. The master is always
// acknowledged: it raised the CPU interrupt on the slave's behalf.
//
//go:nosplit
func (c *Controller) Ack(irq int) {
	if irq < 0 || irq >= NumIRQs {
		return
	}
	if irq >= 8 {
		c.bus.Out8(SlaveCommand, eoi)
	}
	c.bus.Out8(MasterCommand, eoi)
}

//go:nosplit
func (c *Controller) readRegister(ocw3 uint8) uint16 {
	c.bus.Out8(MasterCommand, ocw3)
	c.bus.Out8(SlaveCommand, ocw3)
	return uint16(c.bus.In8(SlaveCommand))<<8 | uint16(c.bus.In8(MasterCommand))
}

// IRR returns the interrupt request registers, slave in the high byte.
func (c *Controller) IRR() uint16 {
	return c.readRegister(ocw3ReadIRR)
}

// ISR returns the in-service registers, slave in the high byte.
//
//go:nosplit
func (c *Controller) ISR() uint16 {
	return c.readRegister(ocw3ReadISR)
}

// String implements fmt.Stringer.
func (c *Controller) String() string {
	return fmt.Sprintf("8259A pair at vectors %#x/%#x", c.masterOffset, c.slaveOffset)
}
