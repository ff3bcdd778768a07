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
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"kcore.dev/kcore/pkg/ring0"
)

// GDT implements subcommands.Command for the "gdt" command.
type GDT struct {
	pointer bool
}

// Name implements subcommands.Command.Name.
func (*GDT) Name() string {
	return "gdt"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*GDT) Synopsis() string {
	return "print the encoding of the kernel GDT"
}

// Usage implements subcommands.Command.Usage.
func (*GDT) Usage() string {
	return "gdt [-pointer]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (g *GDT) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&g.pointer, "pointer", false, "also print the GDTR limit.")
}

// Execute implements subcommands.Command.Execute.
func (g *GDT) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	gdt := ring0.NewGDT()
	for i, d := range gdt {
		fmt.Fprintf(stdout, "%d selector=%#04x raw=%#016x base=%#x limit=%#x access=%#02x flags=%#x present=%t dpl=%d\n",
			i, i*8, d.Uint64(), d.Base(), d.Limit(), uint8(d.Access()), uint8(d.Granularity()), d.Present(), d.DPL())
	}
	if g.pointer {
		fmt.Fprintf(stdout, "limit=%d\n", gdt.Limit())
	}
	return subcommands.ExitSuccess
}
