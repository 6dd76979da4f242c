//go:build riscv64

package plic

import (
	"unsafe"

	"rvkernel/internal/layout"
)

// QEMU virt PLIC register layout (context 0 = hart 0, machine mode):
// priority[irq] at base+4*irq, enable bits for context 0 at base+0x2000,
// threshold at base+0x200000, claim/complete at base+0x200004.
const (
	priorityBase  = layout.PLICBase
	enableBase    = layout.PLICBase + 0x2000
	thresholdReg  = layout.PLICBase + 0x200000
	claimComplete = layout.PLICBase + 0x200004
)

func reg32(addr uintptr) *uint32 { return (*uint32)(unsafe.Pointer(addr)) }

func hwEnable(irq uint32) {
	*reg32(priorityBase + uintptr(irq)*4) = 1
	word := irq / 32
	bit := irq % 32
	r := reg32(enableBase + uintptr(word)*4)
	*r = *r | (1 << bit)
}

func hwSetThreshold(level uint32) { *reg32(thresholdReg) = level }

func hwClaim() uint32 { return *reg32(claimComplete) }

func hwComplete(irq uint32) { *reg32(claimComplete) = irq }
