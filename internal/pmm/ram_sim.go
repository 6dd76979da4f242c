//go:build !riscv64

package pmm

import "rvkernel/internal/layout"

// ram simulates the identity-mapped RAM window for host builds: a single
// Go-allocated backing array, indexed by physical address relative to
// layout.RAMBase, so internal/pmm and internal/vmm's tests can exercise
// real page content (PTEs, page-table walks, fork's stack copy) without a
// real machine. This mirrors the regs_sim.go split in internal/riscv.
var ram [layout.RAMSize]byte

func ramOffset(pa uintptr) uintptr {
	if pa < layout.RAMBase || pa >= layout.RAMBase+layout.RAMSize {
		panic("pmm: physical address outside simulated RAM window")
	}
	return pa - layout.RAMBase
}

// PageBytes returns the simulated memory backing physical page pa.
func PageBytes(pa uintptr) *[layout.PageSize]byte {
	off := ramOffset(pa)
	return (*[layout.PageSize]byte)(ram[off : off+layout.PageSize])
}

func zeroPage(pa uintptr) {
	off := ramOffset(pa)
	page := ram[off : off+layout.PageSize]
	for i := range page {
		page[i] = 0
	}
}
