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
	"kcore.dev/kcore/pkg/interrupt"
)

// PageFault implements subcommands.Command for the "pagefault" command.
type PageFault struct{}

// Name implements subcommands.Command.Name.
func (*PageFault) Name() string {
	return "pagefault"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*PageFault) Synopsis() string {
	return "decode a page fault error code"
}

// Usage implements subcommands.Command.Usage.
func (*PageFault) Usage() string {
	return "pagefault <error code>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*PageFault) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*PageFault) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	code, err := parseUint(f.Arg(0), 64)
	if err != nil {
		errorf("invalid error code %q: %v", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	fmt.Fprintf(stdout, "%#x: %s\n", code, interrupt.PageFaultCause(code))
	return subcommands.ExitSuccess
}
