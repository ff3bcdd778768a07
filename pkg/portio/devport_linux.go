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

package portio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// DevPortPath is the Linux character device exposing the port space.
const DevPortPath = "/dev/port"

// DevPort is a Bus backed by a Linux port device. The file offset selects
// the port and the transfer length selects the access width.
//
// Bus methods cannot fail, so the first I/O error is latched and reported by
// Err; subsequent reads return zero.
type DevPort struct {
	fd int

	mu  sync.Mutex
	err error
}

// OpenDevPort opens path (normally DevPortPath) for port access. It needs
// CAP_SYS_RAWIO.
func OpenDevPort(path string) (*DevPort, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &DevPort{fd: fd}, nil
}

// Close closes the underlying device.
func (d *DevPort) Close() error {
	return unix.Close(d.fd)
}

// Err returns the first error encountered by any access, if any.
func (d *DevPort) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *DevPort) fail(op string, port uint16, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = fmt.Errorf("%s port %#x: %w", op, port, err)
	}
}

func (d *DevPort) read(port uint16, buf []byte) {
	n, err := unix.Pread(d.fd, buf, int64(port))
	if err == nil && n != len(buf) {
		err = unix.EIO
	}
	if err != nil {
		d.fail("reading", port, err)
		clear(buf)
	}
}

func (d *DevPort) write(port uint16, buf []byte) {
	n, err := unix.Pwrite(d.fd, buf, int64(port))
	if err == nil && n != len(buf) {
		err = unix.EIO
	}
	if err != nil {
		d.fail("writing", port, err)
	}
}

// In8 implements Bus.In8.
func (d *DevPort) In8(port uint16) uint8 {
	var buf [1]byte
	d.read(port, buf[:])
	return buf[0]
}

// In16 implements Bus.In16.
func (d *DevPort) In16(port uint16) uint16 {
	var buf [2]byte
	d.read(port, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// In32 implements Bus.In32.
func (d *DevPort) In32(port uint16) uint32 {
	var buf [4]byte
	d.read(port, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Out8 implements Bus.Out8.
func (d *DevPort) Out8(port uint16, v uint8) {
	d.write(port, []byte{v})
}

// Out16 implements Bus.Out16.
func (d *DevPort) Out16(port uint16, v uint16) {
	d.write(port, binary.LittleEndian.AppendUint16(nil, v))
}

// Out32 implements Bus.Out32.
func (d *DevPort) Out32(port uint16, v uint32) {
	d.write(port, binary.LittleEndian.AppendUint32(nil, v))
}
