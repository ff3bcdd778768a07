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

// PS2Data is the PS/2 controller data port.
const PS2Data = 0x60

// Scan code set 1 modifier codes.
const (
	leftShift         = 0x2a
	rightShift        = 0x36
	leftShiftRelease  = 0xaa
	rightShiftRelease = 0xb6
	capsLock          = 0x3a
)

// keymap is indexed by make code: {unshifted, shifted}. Zero entries have no
// character.
var keymap = func() [0x80][2]byte {
	var m [0x80][2]byte
	for _, k := range []struct {
		code         uint8
		lower, upper byte
	}{
		{0x02, '1', '!'}, {0x03, '2', '@'}, {0x04, '3', '#'}, {0x05, '4', '$'},
		{0x06, '5', '%'}, {0x07, '6', '^'}, {0x08, '7', '&'}, {0x09, '8', '*'},
		{0x0a, '9', '('}, {0x0b, '0', ')'}, {0x0c, '-', '_'}, {0x0d, '=', '+'},
		{0x0e, '\b', '\b'}, {0x0f, '\t', '\t'},
		{0x10, 'q', 'Q'}, {0x11, 'w', 'W'}, {0x12, 'e', 'E'}, {0x13, 'r', 'R'},
		{0x14, 't', 'T'}, {0x15, 'y', 'Y'}, {0x16, 'u', 'U'}, {0x17, 'i', 'I'},
		{0x18, 'o', 'O'}, {0x19, 'p', 'P'}, {0x1a, '[', '{'}, {0x1b, ']', '}'},
		{0x1c, '\n', '\n'},
		{0x1e, 'a', 'A'}, {0x1f, 's', 'S'}, {0x20, 'd', 'D'}, {0x21, 'f', 'F'},
		{0x22, 'g', 'G'}, {0x23, 'h', 'H'}, {0x24, 'j', 'J'}, {0x25, 'k', 'K'},
		{0x26, 'l', 'L'}, {0x27, ';', ':'}, {0x28, '\'', '"'}, {0x29, '`', '~'},
		{0x2b, '\\', '|'},
		{0x2c, 'z', 'Z'}, {0x2d, 'x', 'X'}, {0x2e, 'c', 'C'}, {0x2f, 'v', 'V'},
		{0x30, 'b', 'B'}, {0x31, 'n', 'N'}, {0x32, 'm', 'M'}, {0x33, ',', '<'},
		{0x34, '.', '>'}, {0x35, '/', '?'},
		{0x37, '*', '*'}, {0x39, ' ', ' '},
		{0x4a, '-', '-'}, {0x4e, '+', '+'}, {0x53, '.', '.'},
	} {
		m[k.code] = [2]byte{k.lower, k.upper}
	}
	return m
}()

// Keyboard decodes scan code set 1 from the PS/2 data port.
//
// It is only used from the keyboard interrupt, so its state is unlocked.
type Keyboard struct {
	bus   portio.Bus
	shift bool

	// caps is the caps lock state. It inverts shift for letters only.
	caps bool
}

// NewKeyboard returns a keyboard reading from bus.
func NewKeyboard(bus portio.Bus) *Keyboard {
	return &Keyboard{bus: bus}
}

// ReadChar reads one scan code and returns its character. Modifier and
// release codes, and keys without a character, return false.
//
//go:nosplit
func (k *Keyboard) ReadChar() (byte, bool) {
	code := k.bus.In8(PS2Data)
	switch code {
	case leftShift, rightShift:
		k.shift = true
		return 0, false
	case leftShiftRelease, rightShiftRelease:
		k.shift = false
		return 0, false
	case capsLock:
		k.caps = !k.caps
		return 0, false
	}
	if code >= 0x80 {
		return 0, false
	}
	keys := &keymap[code]
	upper := k.shift
	if k.caps && keys[0] >= 'a' && keys[0] <= 'z' {
		upper = !upper
	}
	c := keys[0]
	if upper {
		c = keys[1]
	}
	return c, c != 0
}
