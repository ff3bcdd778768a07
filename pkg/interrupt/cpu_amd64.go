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

package interrupt

import "kcore.dev/kcore/pkg/ring0"

// haltCPU stops the CPU with interrupts off. Only an NMI wakes it, and the
// caller halts again.
func haltCPU() {
	ring0.DisableInterrupts()
	ring0.Halt()
}

func readFaultAddress() uintptr {
	return ring0.ReadCR2()
}
