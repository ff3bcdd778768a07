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

//go:build amd64
// +build amd64

package kernel

import (
	"fmt"

	"kcore.dev/kcore/pkg/config"
	"kcore.dev/kcore/pkg/log"
	"kcore.dev/kcore/pkg/memmap"
	"kcore.dev/kcore/pkg/portio"
)

// Main boots on the machine with COM1 as the diagnostic sink and never
// returns. memory is the map parsed from the bootloader information.
func Main(conf *config.Config, memory *memmap.Map) {
	var bus portio.Native
	com1 := NewSerial(bus, COM1)
	com1.Init()

	if conf == nil {
		conf = config.Default()
	}
	e, err := log.NewEmitter(conf.LogFormat, com1)
	if err != nil {
		panic(fmt.Sprintf("log emitter: %v", err))
	}
	log.SetTarget(e)
	log.SetLevel(conf.Level())

	k, err := New(Options{
		Config: conf,
		Out:    com1,
		Bus:    bus,
		Memory: memory,
		Serial: com1,
	})
	if err != nil {
		panic(err)
	}
	k.Run()
}
