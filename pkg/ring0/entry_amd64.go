// Copyright 2018 The gVisor Authors.
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

package ring0

// Exception stubs.
//
// Each stub leaves the same stack image: the CPU frame, an error code (the
// CPU's, or a zero placeholder), and the vector. It then jumps to the common
// path, which saves the registers, calls dispatch with a *TrapFrame,
// restores the registers in mirror order, drops the vector and error code
// and executes IRETQ.
func divideByZero()
func debug()
func nmi()
func breakpoint()
func overflow()
func boundRangeExceeded()
func invalidOpcode()
func deviceNotAvailable()
func doubleFault()
func coprocessorSegmentOverrun()
func invalidTSS()
func segmentNotPresent()
func stackSegmentFault()
func generalProtectionFault()
func pageFault()
func x87FloatingPointException()
func alignmentCheck()
func machineCheck()
func simdFloatingPointException()
func virtualizationException()
func securityException()

// These returns the start address of the functions above.
//
// In Go 1.17+, Go references to assembly functions resolve to an ABIInternal
// wrapper function rather than the function itself. We must reference from
// assembly to get the ABI0 (i.e., primary) address.
func addrOfDivideByZero() uintptr
func addrOfDebug() uintptr
func addrOfNMI() uintptr
func addrOfBreakpoint() uintptr
func addrOfOverflow() uintptr
func addrOfBoundRangeExceeded() uintptr
func addrOfInvalidOpcode() uintptr
func addrOfDeviceNotAvailable() uintptr
func addrOfDoubleFault() uintptr
func addrOfCoprocessorSegmentOverrun() uintptr
func addrOfInvalidTSS() uintptr
func addrOfSegmentNotPresent() uintptr
func addrOfStackSegmentFault() uintptr
func addrOfGeneralProtectionFault() uintptr
func addrOfPageFault() uintptr
func addrOfX87FloatingPointException() uintptr
func addrOfAlignmentCheck() uintptr
func addrOfMachineCheck() uintptr
func addrOfSimdFloatingPointException() uintptr
func addrOfVirtualizationException() uintptr
func addrOfSecurityException() uintptr

// addrOfExternal returns the stub address for vector FirstExternal+i.
//
// External stubs exist for every vector in [FirstExternal, LastExternal] so
// the PIC may be remapped anywhere within that window.
func addrOfExternal(i uintptr) uintptr

// Exception handler index.
var handlers = func() map[Vector]uintptr {
	m := map[Vector]uintptr{
		DivideByZero:               addrOfDivideByZero(),
		Debug:                      addrOfDebug(),
		NMI:                        addrOfNMI(),
		Breakpoint:                 addrOfBreakpoint(),
		Overflow:                   addrOfOverflow(),
		BoundRangeExceeded:         addrOfBoundRangeExceeded(),
		InvalidOpcode:              addrOfInvalidOpcode(),
		DeviceNotAvailable:         addrOfDeviceNotAvailable(),
		DoubleFault:                addrOfDoubleFault(),
		CoprocessorSegmentOverrun:  addrOfCoprocessorSegmentOverrun(),
		InvalidTSS:                 addrOfInvalidTSS(),
		SegmentNotPresent:          addrOfSegmentNotPresent(),
		StackSegmentFault:          addrOfStackSegmentFault(),
		GeneralProtectionFault:     addrOfGeneralProtectionFault(),
		PageFault:                  addrOfPageFault(),
		X87FloatingPointException:  addrOfX87FloatingPointException(),
		AlignmentCheck:             addrOfAlignmentCheck(),
		MachineCheck:               addrOfMachineCheck(),
		SIMDFloatingPointException: addrOfSimdFloatingPointException(),
		VirtualizationException:    addrOfVirtualizationException(),
		SecurityException:          addrOfSecurityException(),
	}
	for v := FirstExternal; v <= LastExternal; v++ {
		m[v] = addrOfExternal(uintptr(v - FirstExternal))
	}
	return m
}()

// Handler returns the entry stub address for v, if there is one.
func Handler(v Vector) (uintptr, bool) {
	addr, ok := handlers[v]
	return addr, ok
}
