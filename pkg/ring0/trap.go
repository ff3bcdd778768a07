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

import "kcore.dev/kcore/pkg/atomicbitops"

// Dispatcher receives every trap.
type Dispatcher interface {
	Dispatch(tf *TrapFrame)
}

// dispatcher is set once during boot, before the IDT is installed. Calls
// through it land on the method itself, never on a method value wrapper.
var dispatcher Dispatcher

// unhandled counts traps taken with no dispatcher set.
var unhandled atomicbitops.Uint32

// SetDispatcher sets the dispatcher called for every trap.
//
// d.Dispatch runs on the interrupted stack with interrupts disabled
// (except for trap gates). The trampoline saves the general purpose
// registers and the FXSAVE image (x87, MMX and SSE state), so it may use
// SSE. It must not block. It must be go:nosplit, and so must everything it
// calls on a path that returns: a stack copy would move the trampoline
// frame. A path that ends in halt never returns and is exempt.
func SetDispatcher(d Dispatcher) {
	dispatcher = d
}

// Unhandled returns the number of traps taken before SetDispatcher.
func Unhandled() uint32 {
	return unhandled.Load()
}

// dispatch is called by the common trampoline path.
//
//go:nosplit
func dispatch(tf *TrapFrame) {
	if d := dispatcher; d != nil {
		d.Dispatch(tf)
		return
	}
	unhandled.Add(1)
}
