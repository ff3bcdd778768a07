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
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"kcore.dev/kcore/pkg/pic"
	"kcore.dev/kcore/pkg/portio"
	"kcore.dev/kcore/pkg/portio/portiotest"
)

// run executes c with args and returns what it printed.
func run(t *testing.T, c subcommands.Command, args ...string) (string, string, subcommands.ExitStatus) {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parsing %v: %v", args, err)
	}

	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	defer func() { stdout, stderr = oldOut, oldErr }()

	status := c.Execute(context.Background(), f)
	return out.String(), errOut.String(), status
}

func TestCommands(t *testing.T) {
	for _, tc := range []struct {
		name   string
		cmd    subcommands.Command
		args   []string
		status subcommands.ExitStatus
		want   []string
	}{
		{
			name:   "gdt",
			cmd:    new(GDT),
			args:   []string{"-pointer"},
			status: subcommands.ExitSuccess,
			want: []string{
				"0 selector=0x0000 raw=0x0000000000000000",
				"1 selector=0x0008 raw=0x00af9a000000ffff",
				"2 selector=0x0010 raw=0x00af92000000ffff",
				"limit=23\n",
			},
		},
		{
			name:   "gdt extra args",
			cmd:    new(GDT),
			args:   []string{"x"},
			status: subcommands.ExitUsageError,
		},
		{
			name:   "idt",
			cmd:    new(IDT),
			args:   []string{"0x123456789abcdef0"},
			status: subcommands.ExitSuccess,
			want: []string{
				"words 0x0008def0 0x9abc8e00 0x12345678 0x00000000\n",
				"address=0x123456789abcdef0 selector=0x8 type=0xe dpl=0 ist=0 present=true\n",
			},
		},
		{
			name:   "idt trap",
			cmd:    new(IDT),
			args:   []string{"-trap", "-dpl", "3", "0x1000"},
			status: subcommands.ExitSuccess,
			want:   []string{"type=0xf dpl=3"},
		},
		{
			name:   "idt bad dpl",
			cmd:    new(IDT),
			args:   []string{"-dpl", "4", "0x1000"},
			status: subcommands.ExitUsageError,
		},
		{
			name:   "pit",
			cmd:    new(PIT),
			args:   []string{"1000"},
			status: subcommands.ExitSuccess,
			want:   []string{"rate=1000 divisor=1193 low=0xa9 high=0x04 actual=1000.151Hz\n"},
		},
		{
			name:   "pit too slow",
			cmd:    new(PIT),
			args:   []string{"18"},
			status: subcommands.ExitFailure,
		},
		{
			name:   "pit not a number",
			cmd:    new(PIT),
			args:   []string{"fast"},
			status: subcommands.ExitUsageError,
		},
		{
			name:   "pagefault",
			cmd:    new(PageFault),
			args:   []string{"0x2"},
			status: subcommands.ExitSuccess,
			want:   []string{"0x2: ATTEMPTED TO WRITE\n"},
		},
		{
			name:   "pagefault not present",
			cmd:    new(PageFault),
			args:   []string{"0"},
			status: subcommands.ExitSuccess,
			want:   []string{"0x0: PAGE NOT PRESENT\n"},
		},
		{
			name:   "page",
			cmd:    new(Page),
			args:   []string{"0xffffffff80001234"},
			status: subcommands.ExitSuccess,
			want: []string{
				"[511 510 0 1] offset=0x234\n",
				"P4 table at 0xfffffffffffff000\n",
				"P2 table at 0xffffffffffffe000\n",
				"P1 table at 0xffffffffffc00000\n",
			},
		},
		{
			name:   "page non-canonical",
			cmd:    new(Page),
			args:   []string{"0x0000800000000000"},
			status: subcommands.ExitFailure,
		},
		{
			name:   "config defaults",
			cmd:    new(Config),
			status: subcommands.ExitSuccess,
			want:   []string{"timer_hz = 1000\n", "pic_slave_offset = 40\n", `log_format = "text"`},
		},
		{
			name:   "config missing file",
			cmd:    new(Config),
			args:   []string{filepath.Join(os.TempDir(), "kcore-missing", "none.toml")},
			status: subcommands.ExitFailure,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, errOut, status := run(t, tc.cmd, tc.args...)
			if status != tc.status {
				t.Fatalf("status = %v, want %v (stderr %q)", status, tc.status, errOut)
			}
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Errorf("output is missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kcore.toml")
	if err := os.WriteFile(path, []byte("timer_hz = 250\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out, _, status := run(t, new(Config), path)
	if status != subcommands.ExitSuccess || !strings.Contains(out, "timer_hz = 250\n") {
		t.Errorf("config %s = %v:\n%s", path, status, out)
	}

	if err := os.WriteFile(path, []byte("timer_hz = 5\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, errOut, status := run(t, new(Config), path)
	if status != subcommands.ExitFailure || !strings.Contains(errOut, "timer_hz 5 out of range") {
		t.Errorf("config with a bad rate = %v, stderr %q", status, errOut)
	}
}

func TestPorts(t *testing.T) {
	bus := portiotest.New()
	bus.Set(pic.MasterData, 0xfb)
	bus.Set(pic.SlaveData, 0xff)
	bus.OnRead(pic.MasterCommand, func() uint32 { return 0x01 })
	bus.OnRead(pic.SlaveCommand, func() uint32 { return 0x00 })

	var gotPath string
	old := openBus
	defer func() { openBus = old }()
	openBus = func(path string) (portio.Bus, func() error, error) {
		gotPath = path
		return bus, func() error { return nil }, nil
	}

	out, _, status := run(t, new(Ports))
	if status != subcommands.ExitSuccess {
		t.Fatalf("status = %v", status)
	}
	if gotPath != portio.DevPortPath {
		t.Errorf("opened %q, want %q", gotPath, portio.DevPortPath)
	}
	for _, want := range []string{
		"mask=0xfffb irr=0x0001 isr=0x0001\n",
		"IRQ  0 masked=true requested=true in-service=true\n",
		"IRQ  2 masked=false requested=false in-service=false\n",
		"IRQ 15 masked=true requested=false in-service=false\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestPortsErrors(t *testing.T) {
	old := openBus
	defer func() { openBus = old }()

	openBus = func(string) (portio.Bus, func() error, error) {
		return nil, nil, errors.New("permission denied")
	}
	if _, errOut, status := run(t, new(Ports)); status != subcommands.ExitFailure || !strings.Contains(errOut, "permission denied") {
		t.Errorf("open failure: status %v, stderr %q", status, errOut)
	}

	openBus = func(string) (portio.Bus, func() error, error) {
		return portiotest.New(), func() error { return errors.New("short read") }, nil
	}
	if _, errOut, status := run(t, new(Ports)); status != subcommands.ExitFailure || !strings.Contains(errOut, "short read") {
		t.Errorf("I/O failure: status %v, stderr %q", status, errOut)
	}
}
