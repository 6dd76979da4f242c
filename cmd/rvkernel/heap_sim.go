//go:build !riscv64

package main

import "rvkernel/internal/layout"

// simHeapPages stands in for the linker-provided heap range on host
// builds, the same substitution internal/pmm's ram_sim.go makes for RAM
// itself. The first 64 pages of the simulated RAM window are left
// unaccounted for, standing in for the kernel image itself (matching
// internal/pmm's own test fixtures' convention).
const simHeapPages = 256

func heapStart() uintptr { return uintptr(layout.RAMBase + layout.PageSize*64) }
func heapEnd() uintptr   { return heapStart() + simHeapPages*layout.PageSize }
