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

package cmd

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"unsafe"

	"github.com/google/subcommands"
	"kcore.dev/kcore/pkg/ring0"
)

// IDT implements subcommands.Command for the "idt" command.
type IDT struct {
	selector uint
	trap     bool
	dpl      int
	ist      int
}

// Name implements subcommands.Command.Name.
func (*IDT) Name() string {
	return "idt"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*IDT) Synopsis() string {
	return "encode an IDT gate for a handler address"
}

// Usage implements subcommands.Command.Usage.
func (*IDT) Usage() string {
	return "idt [flags] <handler address>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (i *IDT) SetFlags(f *flag.FlagSet) {
	f.UintVar(&i.selector, "selector", uint(ring0.Kcode), "code segment selector.")
	f.BoolVar(&i.trap, "trap", false, "encode a trap gate instead of an interrupt gate.")
	f.IntVar(&i.dpl, "dpl", 0, "descriptor privilege level.")
	f.IntVar(&i.ist, "ist", 0, "interrupt stack table index.")
}

// Execute implements subcommands.Command.Execute.
func (i *IDT) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	addr, err := parseUint(f.Arg(0), 64)
	if err != nil {
		errorf("invalid handler address %q: %v", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	if i.selector > 0xffff || i.dpl < 0 || i.dpl > 3 || i.ist < 0 || i.ist > 7 {
		errorf("selector, dpl or ist out of range")
		return subcommands.ExitUsageError
	}
	typ := ring0.InterruptGate
	if i.trap {
		typ = ring0.TrapGate
	}
	g := ring0.NewGate(addr, ring0.Selector(i.selector), typ, i.dpl, i.ist)

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&g)), unsafe.Sizeof(g))
	fmt.Fprintf(stdout, "words %#08x %#08x %#08x %#08x\n",
		binary.LittleEndian.Uint32(raw[0:]), binary.LittleEndian.Uint32(raw[4:]),
		binary.LittleEndian.Uint32(raw[8:]), binary.LittleEndian.Uint32(raw[12:]))
	fmt.Fprintf(stdout, "bytes % x\n", raw)
	fmt.Fprintf(stdout, "address=%#x selector=%#x type=%#x dpl=%d ist=%d present=%t\n",
		g.Address(), uint16(g.Selector()), uint8(g.Type()), g.DPL(), g.IST(), g.Present())
	return subcommands.ExitSuccess
}
