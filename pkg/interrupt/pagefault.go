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

package interrupt

import "kcore.dev/kcore/pkg/bits"

// Page fault error code bits.
const (
	PageFaultProtection = 1 << 0 // Page was present; access violated protection.
	PageFaultWrite      = 1 << 1
	PageFaultUser       = 1 << 2
	PageFaultReserved   = 1 << 3 // Reserved bit set in a table entry.
	PageFaultFetch      = 1 << 4
)

// pageFaultCauses is in reporting priority order.
var pageFaultCauses = []struct {
	bit   uint64
	cause string
}{
	{PageFaultProtection, "PROTECTION VIOLATION"},
	{PageFaultWrite, "ATTEMPTED TO WRITE"},
	{PageFaultUser, "USER MODE"},
	{PageFaultReserved, "ERROR IN TABLE"},
	{PageFaultFetch, "INSTRUCTION FETCH"},
}

// PageFaultCause returns the dominant cause encoded in a page fault error
// code. When several bits are set the first in priority order wins:
// protection, write, user, reserved bit, instruction fetch.
func PageFaultCause(code uint64) string {
	if code == 0 {
		return "PAGE NOT PRESENT"
	}
	for _, c := range pageFaultCauses {
		if bits.IsAnyOn(code, c.bit) {
			return c.cause
		}
	}
	return "UNKNOWN ERROR"
}
