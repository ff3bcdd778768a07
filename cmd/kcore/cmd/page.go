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
	"kcore.dev/kcore/pkg/hostarch"
	"kcore.dev/kcore/pkg/ring0/pagetables"
)

// Page implements subcommands.Command for the "page" command.
type Page struct{}

// Name implements subcommands.Command.Name.
func (*Page) Name() string {
	return "page"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Page) Synopsis() string {
	return "show the table indices and recursive table addresses for a virtual address"
}

// Usage implements subcommands.Command.Usage.
func (*Page) Usage() string {
	return "page <virtual address>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Page) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Page) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	v, err := parseUint(f.Arg(0), 64)
	if err != nil {
		errorf("invalid address %q: %v", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	addr := hostarch.Addr(v)
	if !addr.IsCanonical() {
		errorf("address %v is not canonical", addr)
		return subcommands.ExitFailure
	}
	page := pagetables.PageOf(addr)
	fmt.Fprintf(stdout, "%v offset=%#x\n", page, addr.PageOffset())
	for i, a := range pagetables.TableAddrs(page) {
		fmt.Fprintf(stdout, "P%d table at %v\n", 4-i, a)
	}
	return subcommands.ExitSuccess
}
