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
	"kcore.dev/kcore/pkg/pit"
)

// PIT implements subcommands.Command for the "pit" command.
type PIT struct{}

// Name implements subcommands.Command.Name.
func (*PIT) Name() string {
	return "pit"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*PIT) Synopsis() string {
	return "compute the PIT divisor for a tick rate"
}

// Usage implements subcommands.Command.Usage.
func (*PIT) Usage() string {
	return "pit <hz>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*PIT) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*PIT) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	hz, err := parseUint(f.Arg(0), 32)
	if err != nil {
		errorf("invalid rate %q: %v", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	if hz < pit.MinRate || hz > pit.BaseFrequency {
		errorf("rate %d Hz out of range [%d, %d]", hz, pit.MinRate, pit.BaseFrequency)
		return subcommands.ExitFailure
	}
	d := pit.Divisor(uint32(hz))
	fmt.Fprintf(stdout, "rate=%d divisor=%d low=%#02x high=%#02x actual=%.3fHz\n",
		hz, d, d&0xff, d>>8, float64(pit.BaseFrequency)/float64(d))
	return subcommands.ExitSuccess
}
