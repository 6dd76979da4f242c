//go:build riscv64

package pmm

import "unsafe"

import "rvkernel/internal/layout"

// PageBytes returns the live memory backing physical page pa. RAM is
// identity-mapped for the whole kernel, so a physical address is also a
// valid virtual address once satp is set, and this is nothing more than a
// typed pointer cast over that identity mapping.
func PageBytes(pa uintptr) *[layout.PageSize]byte {
	return (*[layout.PageSize]byte)(unsafe.Pointer(pa))
}

func zeroPage(pa uintptr) {
	b := PageBytes(pa)
	for i := range b {
		b[i] = 0
	}
}
