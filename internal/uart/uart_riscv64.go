//go:build riscv64

package uart

import (
	"unsafe"

	"rvkernel/internal/layout"
)

// 16550 register offsets from the UART MMIO base (consecutive bytes, 1
// byte wide on the QEMU virt platform).
const (
	regRBR_THR = 0 // receiver buffer / transmit holding (same offset)
	regIER     = 1
	regLSR     = 5

	lsrTHRE = 1 << 5 // transmit holding register empty
	lsrDR   = 1 << 0 // data ready
)

func reg(off uintptr) *byte {
	return (*byte)(unsafe.Pointer(uintptr(layout.UARTBase) + off))
}

func hwInit() {
	*reg(regIER) = 1 // enable receive-data-available interrupt
}

func hwWriteByte(b byte) {
	for *reg(regLSR)&lsrTHRE == 0 {
	}
	*reg(regRBR_THR) = b
}

func hwTryReadByte() (byte, bool) {
	if *reg(regLSR)&lsrDR == 0 {
		return 0, false
	}
	return *reg(regRBR_THR), true
}
