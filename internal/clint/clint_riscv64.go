//go:build riscv64

package clint

import (
	"unsafe"

	"rvkernel/internal/layout"
)

// mtimePtr and mtimecmpPtr are volatile accesses into the CLINT MMIO
// window, identity-mapped by internal/vmm at boot. Go has no volatile
// qualifier; a single load/store compiles to a single memory access on
// riscv64, which is all set_next_timer's C original relies on.
func mtimePtr() *uint64     { return (*uint64)(unsafe.Pointer(uintptr(layout.CLINTMtime))) }
func mtimecmpPtr() *uint64  { return (*uint64)(unsafe.Pointer(uintptr(layout.CLINTMtimecmpHart0))) }

func readMtime() uint64         { return *mtimePtr() }
func readMtimecmp() uint64      { return *mtimecmpPtr() }
func writeMtimecmp(v uint64)    { *mtimecmpPtr() = v }
