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

// Package interrupt maps every vector to a handler and an outcome.
//
// There are three outcomes. Fatal vectors write a report to the diagnostic
// sink and halt the CPU forever; nothing resumes the faulting code. Benign
// vectors queue the same report and return; Flush writes it later, outside
// interrupt context. Service vectors run a short device body for a PIC
// line and then acknowledge that line.
//
// Everything on a path that returns to the trampoline runs on the
// interrupted stack and must not grow it: those functions are go:nosplit
// and do not allocate or format. Only the fatal path, which never returns,
// formats in place.
package interrupt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"kcore.dev/kcore/pkg/atomicbitops"
	"kcore.dev/kcore/pkg/bits"
	"kcore.dev/kcore/pkg/log"
	"kcore.dev/kcore/pkg/ring0"
)

// Class is the outcome of a vector.
type Class int

// Classes.
const (
	// Unregistered vectors are reported as fatal.
	Unregistered Class = iota
	Fatal
	Benign
	Service
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case Unregistered:
		return "unregistered"
	case Fatal:
		return "fatal"
	case Benign:
		return "benign"
	case Service:
		return "service"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Device is the body of a service vector.
//
// Interrupt runs with interrupts disabled on the interrupted stack. It must
// be go:nosplit, as must everything it calls, and it must not allocate.
// Drivers implement it with pointer receivers so the interface call lands
// on the method itself.
type Device interface {
	Interrupt(tf *ring0.TrapFrame)
}

// Handler is a function used as a Device.
//
// Function values cannot be marked go:nosplit, so Handler suits host tools
// and tests. Kernel drivers implement Device directly.
type Handler func(tf *ring0.TrapFrame)

// Interrupt implements Device.Interrupt.
//
//go:nosplit
func (fn Handler) Interrupt(tf *ring0.TrapFrame) {
	fn(tf)
}

// WithoutCode adapts a handler that takes only the CPU frame.
func WithoutCode[F ~func(*ring0.InterruptFrame)](fn F) Handler {
	return func(tf *ring0.TrapFrame) {
		fn(&tf.InterruptFrame)
	}
}

// WithCode adapts a handler that takes the CPU frame and the error code.
func WithCode[F ~func(*ring0.InterruptFrame, uint64)](fn F) Handler {
	return func(tf *ring0.TrapFrame) {
		fn(&tf.InterruptFrame, tf.ErrorCode)
	}
}

// PIC is the part of the interrupt controller the registry needs. Both
// methods are called from interrupt context and must be go:nosplit.
type PIC interface {
	// Ack signals end of interrupt for a raw IRQ line.
	Ack(irq int)

	// ISR returns the in-service registers, slave in the high byte.
	ISR() uint16
}

// cascade is the master line the slave PIC is wired to.
const cascade = 2

// MaxQueued is the number of benign reports held between calls to Flush.
// Further reports are counted and dropped.
const MaxQueued = 16

type slot struct {
	class    Class
	name     string
	irq      int
	spurious bool
	dev      Device
}

// queued is a benign trap copied out of the trampoline frame.
type queued struct {
	tf        ring0.TrapFrame
	faultAddr uintptr
}

// Registry is the vector table seen by the dispatcher.
//
// Slots are set during boot, before interrupts are enabled, and only read
// afterwards.
type Registry struct {
	out   io.Writer
	pic   PIC
	slots [ring0.NumVectors]slot

	// halt is called in a loop after a fatal report.
	halt func()

	// faultAddress returns the page fault linear address (CR2).
	faultAddress func() uintptr

	// queue holds benign reports until Flush. Entries below nqueued are
	// complete; the interrupt side only appends.
	queue   [MaxQueued]queued
	nqueued atomicbitops.Uint32
	dropped atomicbitops.Uint32

	// spuriousLog throttles spurious IRQ warnings. spuriousSeen is the
	// count last logged, and is only touched by Flush.
	spuriousLog  log.Logger
	spurious     atomicbitops.Uint32
	spuriousSeen uint32
}

// New returns an empty registry reporting to out and acknowledging through
// pic.
func New(out io.Writer, pic PIC) *Registry {
	return &Registry{
		out:          out,
		pic:          pic,
		halt:         haltCPU,
		faultAddress: readFaultAddress,
		spuriousLog:  log.BasicRateLimitedLogger(time.Second),
	}
}

// SetHalt replaces the function called after a fatal report.
func (r *Registry) SetHalt(fn func()) {
	r.halt = fn
}

// SetFaultAddress replaces the CR2 reader used for page fault reports.
func (r *Registry) SetFaultAddress(fn func() uintptr) {
	r.faultAddress = fn
}

// Fatal registers v as a fatal exception.
func (r *Registry) Fatal(v ring0.Vector, name string) {
	r.slots[v] = slot{class: Fatal, name: name}
}

// Benign registers v as a reported, resumable exception.
func (r *Registry) Benign(v ring0.Vector, name string) {
	r.slots[v] = slot{class: Benign, name: name}
}

// Service registers dev as the body for v, which is delivered for PIC line
// irq. dev may be nil for a line that only needs acknowledging. The line
// is acknowledged after the body returns.
func (r *Registry) Service(v ring0.Vector, irq int, name string, dev Device) {
	r.slots[v] = slot{class: Service, name: name, irq: irq, dev: dev}
}

// Spurious registers v, the vector of PIC line 7 or 15, with spurious IRQ
// detection. A real interrupt on the line runs dev (which may be nil) and
// is acknowledged. A spurious one is counted; it gets no EOI from the
// controller that raised it, but a spurious slave IRQ still needs the
// master's cascade line acknowledged.
func (r *Registry) Spurious(v ring0.Vector, irq int, dev Device) {
	if irq != 7 && irq != 15 {
		panic(fmt.Sprintf("IRQ %d cannot be spurious", irq))
	}
	r.slots[v] = slot{class: Service, name: fmt.Sprintf("IRQ %d", irq), irq: irq, spurious: true, dev: dev}
}

// Class returns the class of v and its name.
func (r *Registry) Class(v ring0.Vector) (Class, string) {
	s := &r.slots[v]
	return s.class, s.name
}

// SpuriousCount returns the number of spurious IRQs seen.
func (r *Registry) SpuriousCount() uint32 {
	return r.spurious.Load()
}

// Dispatch handles one trap. It is installed with ring0.SetDispatcher.
//
//go:nosplit
func (r *Registry) Dispatch(tf *ring0.TrapFrame) {
	if tf.Vector >= ring0.NumVectors {
		r.fatal(tf, "UNHANDLED EXCEPTION")
		return
	}
	s := &r.slots[tf.Vector]
	switch s.class {
	case Fatal:
		r.fatal(tf, s.name)
	case Benign:
		r.enqueue(tf)
	case Service:
		if s.spurious && r.isSpurious(s.irq) {
			return
		}
		if s.dev != nil {
			s.dev.Interrupt(tf)
		}
		r.pic.Ack(s.irq)
	default:
		r.fatal(tf, "UNHANDLED EXCEPTION")
	}
}

// enqueue copies tf for Flush.
//
//go:nosplit
func (r *Registry) enqueue(tf *ring0.TrapFrame) {
	n := r.nqueued.Load()
	if n >= MaxQueued {
		r.dropped.Add(1)
		return
	}
	q := &r.queue[n]
	q.tf = *tf
	q.faultAddr = 0
	if tf.Vector == ring0.PageFault {
		q.faultAddr = r.faultAddress()
	}
	r.nqueued.Store(n + 1)
}

// isSpurious handles the spurious case for line irq and reports whether
// the interrupt was spurious.
//
//go:nosplit
func (r *Registry) isSpurious(irq int) bool {
	if bits.IsAnyOn(r.pic.ISR(), bits.MaskOf[uint16](irq)) {
		return false
	}
	r.spurious.Add(1)
	if irq >= 8 {
		r.pic.Ack(cascade)
	}
	return true
}

// Flush writes the benign reports queued since the last call and logs new
// spurious IRQs. It must run outside interrupt context; interrupts taken
// while it runs are picked up before it returns.
func (r *Registry) Flush() {
	var done uint32
	for {
		n := r.nqueued.Load()
		for ; done < n; done++ {
			q := &r.queue[done]
			r.report(&q.tf, r.slots[q.tf.Vector].name, q.faultAddr)
		}
		if r.nqueued.CompareAndSwap(n, 0) {
			break
		}
	}
	if d := r.dropped.Swap(0); d > 0 {
		fmt.Fprintf(r.out, "(%d exception reports dropped)\n", d)
	}
	if n := r.spurious.Load(); n != r.spuriousSeen {
		r.spuriousLog.Warningf("%d spurious IRQs (%d total)", n-r.spuriousSeen, n)
		r.spuriousSeen = n
	}
}

// fatal reports tf and halts. It never returns to the trampoline, so it
// may format on the interrupted stack.
func (r *Registry) fatal(tf *ring0.TrapFrame, name string) {
	r.Flush()
	var faultAddr uintptr
	if tf.Vector == ring0.PageFault {
		faultAddr = r.faultAddress()
	}
	r.report(tf, name, faultAddr)
	for {
		r.halt()
	}
}

// report writes the exception report for tf to the sink.
func (r *Registry) report(tf *ring0.TrapFrame, name string, faultAddr uintptr) {
	if name == "" {
		name = strings.ToUpper(tf.Vector.String())
	}
	fmt.Fprintf(r.out, "EXCEPTION: %s at instruction %#x (vector %d)\n", name, tf.RIP, uintptr(tf.Vector))
	if tf.Vector.HasErrorCode() {
		if tf.Vector == ring0.PageFault {
			fmt.Fprintf(r.out, "error code %#x: %s\n", tf.ErrorCode, PageFaultCause(tf.ErrorCode))
			fmt.Fprintf(r.out, "fault address %#x\n", faultAddr)
		} else {
			fmt.Fprintf(r.out, "error code %#x\n", tf.ErrorCode)
		}
	}
	tf.DumpTo(r.out)
	fmt.Fprintf(r.out, "\n")
}
