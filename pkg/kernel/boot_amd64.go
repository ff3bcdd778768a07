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

//go:build amd64
// +build amd64

package kernel

import (
	"fmt"
	"unsafe"

	"kcore.dev/kcore/pkg/hostarch"
	"kcore.dev/kcore/pkg/log"
	"kcore.dev/kcore/pkg/memmap"
	"kcore.dev/kcore/pkg/portio"
	"kcore.dev/kcore/pkg/ring0"
)

// Privileged boot steps. Tests replace them.
var (
	installGDT       = (*ring0.GDT).Install
	installIDT       = (*ring0.IDT).Install
	enableInterrupts = func() { ring0.EnableInterrupts() }
	idle             = func() { ring0.Halt() }
)

// Boot runs the boot sequence. It returns once interrupts are enabled and
// the self-test wait is done.
func (k *Kernel) Boot() {
	if uintptr(unsafe.Pointer(k.globalIDT))&(hostarch.PageSize-1) != 0 {
		panic("globalIDT is not page aligned")
	}

	fmt.Fprintf(k.out, "Welcome to the kcore kernel!\nStarting boot procedure...\n\n")
	k.dumpMemory()
	if k.memory != nil {
		k.Frames = memmap.NewAllocator(k.memory, k.conf.FrameFloor)
		k.ok("Frame allocator ready above %#x", k.conf.FrameFloor)
	}

	if k.com1 != nil {
		k.com1.Init()
		k.ok("COM1 serial port initialised")
	}

	*k.globalGDT = ring0.NewGDT()
	installGDT(k.globalGDT)
	k.ok("Loaded the GDT (code selector %#x, data selector %#x)", uint16(ring0.Kcode), uint16(ring0.Kdata))

	k.globalIDT.Init()
	k.registerHandlers()
	ring0.SetDispatcher(k.Registry)
	installIDT(k.globalIDT)
	k.ok("Loaded the IDT at %#x", uintptr(unsafe.Pointer(k.globalIDT)))

	k.PIC.Init(k.conf.PICMasterOffset, k.conf.PICSlaveOffset)
	k.unmask()
	master, _ := k.PIC.Offsets()
	k.ok("Initialised the PIC, at an offset of %#x", master)
	log.Debugf("PIC masks %#04x", k.PIC.Masks())

	k.Timer.SetRelax(k.relax)
	k.Timer.SetRate(k.conf.TimerHz)
	k.ok("Initialised the PIT, at a phase of %d Hz", k.conf.TimerHz)

	enableInterrupts()
	fmt.Fprintf(k.out, "Enabled interrupts.\n\n")

	if n := k.conf.BootWaitTicks; n > 0 {
		k.Timer.Wait(n)
		fmt.Fprintf(k.out, "Waited for %d ticks.\n", n)
	}
	k.Registry.Flush()
	k.booted.Store(true)
	log.Infof("Boot complete: timer at %d Hz, %d traps before dispatch", k.Timer.Rate(), ring0.Unhandled())

	if k.conf.ExitAfterBoot {
		portio.ExitEmulator(k.bus, BootExitCode)
	}
}

// Run boots and then idles forever, woken only by interrupts.
func (k *Kernel) Run() {
	k.Boot()
	for {
		k.relax()
	}
}

// relax runs while the kernel waits for an interrupt: it writes the
// reports queued by interrupt context, then idles.
func (k *Kernel) relax() {
	k.Registry.Flush()
	idle()
}
