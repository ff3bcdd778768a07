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

// Binary kcore inspects the kernel core's hardware encodings from a host.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"kcore.dev/kcore/cmd/kcore/cmd"
	"kcore.dev/kcore/pkg/log"
)

var (
	debug     = flag.Bool("debug", false, "enable debug logging.")
	logFormat = flag.String("log-format", "text", "log format: text or json.")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	const encodings = "encodings"
	subcommands.Register(new(cmd.GDT), encodings)
	subcommands.Register(new(cmd.IDT), encodings)
	subcommands.Register(new(cmd.PIT), encodings)
	subcommands.Register(new(cmd.PageFault), encodings)
	subcommands.Register(new(cmd.Page), encodings)

	const host = "host"
	subcommands.Register(new(cmd.Ports), host)
	subcommands.Register(new(cmd.Config), host)

	flag.Parse()

	e, err := log.NewEmitter(*logFormat, os.Stderr)
	if err != nil {
		cmd.Fatalf("%v", err)
	}
	log.SetTarget(e)
	if *debug {
		log.SetLevel(log.Debug)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
