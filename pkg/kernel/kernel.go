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

// Package kernel wires the core together and runs the boot sequence.
//
// Boot order is fixed: GDT, IDT and handler registry, PIC, PIT, then
// interrupts are enabled. Every step before the last runs with interrupts
// disabled.
package kernel

import (
	"fmt"
	"io"

	"kcore.dev/kcore/pkg/atomicbitops"
	"kcore.dev/kcore/pkg/bits"
	"kcore.dev/kcore/pkg/config"
	"kcore.dev/kcore/pkg/interrupt"
	"kcore.dev/kcore/pkg/log"
	"kcore.dev/kcore/pkg/memmap"
	"kcore.dev/kcore/pkg/pic"
	"kcore.dev/kcore/pkg/pit"
	"kcore.dev/kcore/pkg/portio"
	"kcore.dev/kcore/pkg/ring0"
)

// IRQ lines serviced by the kernel.
const (
	TimerIRQ    = 0
	KeyboardIRQ = 1
	COM1IRQ     = 4
)

// BootExitCode is written to the isa-debug-exit port when exit_after_boot
// is set. QEMU exits with status 33.
const BootExitCode = 0x10

// CharSource yields at most one pending input character.
//
// ReadChar is called from interrupt context and must be go:nosplit.
type CharSource interface {
	ReadChar() (byte, bool)
}

// Options configures New.
type Options struct {
	// Config is the boot configuration. Nil means config.Default().
	Config *config.Config

	// Out is the diagnostic text sink: banners and exception reports. Its
	// Write is called from interrupt context and must be go:nosplit.
	Out io.Writer

	// Bus reaches the PIC, PIT and devices.
	Bus portio.Bus

	// Memory is the bootloader memory map. It may be nil.
	Memory *memmap.Map

	// Keyboard and Serial default to the PS/2 keyboard and COM1 on Bus.
	Keyboard CharSource
	Serial   CharSource
}

// Kernel is the booted core.
type Kernel struct {
	conf   *config.Config
	out    io.Writer
	bus    portio.Bus
	memory *memmap.Map

	PIC      *pic.Controller
	Timer    *pit.Timer
	Registry *interrupt.Registry

	// Frames allocates from the usable memory above the configured floor.
	// It is set during Boot, and stays nil without a memory map.
	Frames *memmap.Allocator

	keyboard CharSource
	serial   CharSource

	// com1 is set when serial is the UART on the bus, which then needs
	// Init during boot.
	com1 *Serial

	// globalGDT and globalIDT must outlive the kernel: the CPU keeps
	// pointing at them after Install.
	globalGDT *ring0.GDT
	globalIDT *ring0.IDT

	// booted is set once Boot has returned.
	booted atomicbitops.Bool
}

// New builds a kernel. The hardware is not touched until Boot.
func New(opts Options) (*Kernel, error) {
	conf := opts.Config
	if conf == nil {
		conf = config.Default()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Out == nil || opts.Bus == nil {
		return nil, fmt.Errorf("kernel needs an output sink and a port bus")
	}

	p := pic.New(opts.Bus)
	k := &Kernel{
		conf:      conf,
		out:       opts.Out,
		bus:       opts.Bus,
		memory:    opts.Memory,
		PIC:       p,
		Timer:     pit.New(opts.Bus),
		Registry:  interrupt.New(opts.Out, p),
		keyboard:  opts.Keyboard,
		serial:    opts.Serial,
		globalGDT: new(ring0.GDT),
		globalIDT: new(ring0.IDT),
	}
	if k.keyboard == nil {
		k.keyboard = NewKeyboard(opts.Bus)
	}
	if k.serial == nil {
		k.com1 = NewSerial(opts.Bus, COM1)
		k.serial = k.com1
	}
	return k, nil
}

// Config returns the configuration in use.
func (k *Kernel) Config() *config.Config {
	return k.conf
}

// Booted returns true once the boot sequence has completed.
func (k *Kernel) Booted() bool {
	return k.booted.Load()
}

// ok prints a boot step banner.
func (k *Kernel) ok(format string, v ...any) {
	fmt.Fprintf(k.out, "[ OK ] "+format+"\n", v...)
}

// benignExceptions are reported and resumed. Every other exception is
// fatal.
var benignExceptions = map[ring0.Vector]bool{
	ring0.Debug:      true,
	ring0.Breakpoint: true,
}

// registerHandlers fills the registry: every exception vector, the
// serviced IRQ lines, spurious detection on lines 7 and 15, and an
// acknowledge-only service for any other unmasked line.
func (k *Kernel) registerHandlers() {
	r := k.Registry
	for v := ring0.Vector(0); v < ring0.FirstExternal; v++ {
		if benignExceptions[v] {
			r.Benign(v, "")
		} else {
			r.Fatal(v, "")
		}
	}

	// The PIC is programmed after the registry, so vectors come from the
	// configuration rather than the controller.
	vec := func(irq int) ring0.Vector {
		if irq < 8 {
			return ring0.Vector(k.conf.PICMasterOffset) + ring0.Vector(irq)
		}
		return ring0.Vector(k.conf.PICSlaveOffset) + ring0.Vector(irq-8)
	}
	r.Service(vec(TimerIRQ), TimerIRQ, "timer", &timerDevice{timer: k.Timer})
	r.Service(vec(KeyboardIRQ), KeyboardIRQ, "keyboard", &echoDevice{src: k.keyboard, out: k.out})
	r.Service(vec(COM1IRQ), COM1IRQ, "COM1", newSerialDevice(k.serial, k.out))
	r.Spurious(vec(7), 7, nil)
	r.Spurious(vec(15), 15, nil)

	for _, irq := range k.conf.UnmaskIRQs {
		if class, _ := r.Class(vec(irq)); class != interrupt.Service {
			r.Service(vec(irq), irq, fmt.Sprintf("IRQ %d", irq), nil)
		}
	}
}

// unmaskedLines returns the configured lines, plus the cascade line when
// any slave line is enabled.
func (k *Kernel) unmaskedLines() uint16 {
	lines := bits.Mask[uint16](k.conf.UnmaskIRQs...)
	if bits.IsAnyOn(lines, 0xff00) {
		lines |= bits.MaskOf[uint16](pic.Cascade)
	}
	return lines
}

// unmask enables unmaskedLines on the PIC.
func (k *Kernel) unmask() {
	bits.ForEachSetBit(uint64(k.unmaskedLines()), k.PIC.Unmask)
}

// dumpMemory prints the bootloader memory map.
func (k *Kernel) dumpMemory() {
	if k.memory == nil {
		fmt.Fprintf(k.out, "No memory map.\n")
		return
	}
	fmt.Fprintf(k.out, "Memory map:\n")
	k.memory.WriteTo(k.out)
	fmt.Fprintf(k.out, "%d usable frames\n", k.memory.UsableFrames())
	log.Debugf("Memory map has %d regions", k.memory.Len())
}
