package vmm

import (
	"unsafe"

	"rvkernel/internal/layout"
)

// ptrFromBytes reinterprets a page's byte storage as a page-table pointer.
// Both pmm.PageBytes implementations (the real identity-mapped cast and the
// host simulation) hand back a *[layout.PageSize]byte, so this cast is the
// same regardless of build target.
func ptrFromBytes(b *[layout.PageSize]byte) unsafe.Pointer {
	return unsafe.Pointer(b)
}
