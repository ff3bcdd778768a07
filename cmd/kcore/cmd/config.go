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

	"github.com/BurntSushi/toml"
	"github.com/google/subcommands"
	"kcore.dev/kcore/pkg/config"
)

// Config implements subcommands.Command for the "config" command.
type Config struct{}

// Name implements subcommands.Command.Name.
func (*Config) Name() string {
	return "config"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Config) Synopsis() string {
	return "validate a boot configuration and print the effective values"
}

// Usage implements subcommands.Command.Usage.
func (*Config) Usage() string {
	return "config [path]\n\nWithout a path, the built-in defaults are printed.\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Config) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Config) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	var (
		c   *config.Config
		err error
	)
	switch f.NArg() {
	case 0:
		c = config.Default()
	case 1:
		if c, err = config.Load(f.Arg(0)); err != nil {
			errorf("%v", err)
			return subcommands.ExitFailure
		}
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
	if err := toml.NewEncoder(stdout).Encode(c); err != nil {
		errorf("encoding configuration: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
