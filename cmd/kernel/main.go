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

// Binary kernel is the freestanding entry point. The boot stub enters
// long mode, sets up the recursive page table slot and a stack, then
// jumps here.
package main

import (
	"kcore.dev/kcore/pkg/config"
	"kcore.dev/kcore/pkg/kernel"
	"kcore.dev/kcore/pkg/memmap"
)

// bootMemory is filled from the multiboot2 memory map by the boot stub
// before main runs. Nil means the bootloader provided none.
var bootMemory *memmap.Map

func main() {
	kernel.Main(config.Default(), bootMemory)
}
