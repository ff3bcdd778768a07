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

// Package cmd holds the kcore subcommands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"kcore.dev/kcore/pkg/log"
)

// Output streams. Tests replace them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Fatalf logs the message, prints it to stderr and exits.
func Fatalf(format string, args ...any) {
	log.Warningf(format, args...)
	fmt.Fprintf(stderr, format+"\n", args...)
	os.Exit(128)
}

// errorf prints the message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(stderr, format+"\n", args...)
}

// parseUint parses s as a number in any Go base prefix.
func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}
