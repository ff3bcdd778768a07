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
	"kcore.dev/kcore/pkg/log"
	"kcore.dev/kcore/pkg/pic"
	"kcore.dev/kcore/pkg/portio"
)

// Ports implements subcommands.Command for the "ports" command.
type Ports struct {
	path string
}

// Name implements subcommands.Command.Name.
func (*Ports) Name() string {
	return "ports"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Ports) Synopsis() string {
	return "read the live 8259 PIC registers through the port device"
}

// Usage implements subcommands.Command.Usage.
func (*Ports) Usage() string {
	return "ports [-path /dev/port]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (p *Ports) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.path, "path", portio.DevPortPath, "port device.")
}

// openBus opens the port device. Tests replace it.
var openBus = func(path string) (portio.Bus, func() error, error) {
	d, err := portio.OpenDevPort(path)
	if err != nil {
		return nil, nil, err
	}
	return d, func() error {
		defer d.Close()
		return d.Err()
	}, nil
}

// Execute implements subcommands.Command.Execute.
func (p *Ports) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	bus, done, err := openBus(p.path)
	if err != nil {
		errorf("%v", err)
		return subcommands.ExitFailure
	}
	c := pic.New(bus)
	masks, irr, isr := c.Masks(), c.IRR(), c.ISR()
	if err := done(); err != nil {
		errorf("%v", err)
		return subcommands.ExitFailure
	}
	log.Debugf("Read PIC registers through %s", p.path)
	fmt.Fprintf(stdout, "mask=%#04x irr=%#04x isr=%#04x\n", masks, irr, isr)
	for irq := 0; irq < pic.NumIRQs; irq++ {
		bit := uint16(1) << irq
		fmt.Fprintf(stdout, "IRQ %2d masked=%t requested=%t in-service=%t\n",
			irq, masks&bit != 0, irr&bit != 0, isr&bit != 0)
	}
	return subcommands.ExitSuccess
}
