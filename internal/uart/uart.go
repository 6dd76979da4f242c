package uart

import "rvkernel/internal/plic"

// Init enables the UART's receive-data-available interrupt and its PLIC
// IRQ so Intr can feed the receive ring; line settings (baud, framing)
// are left as the platform configured them. Must run before klog.SetWriter
// rebinds the default logger onto this package's Writer.
func Init() {
	hwInit()
	plic.Enable(plic.UARTIRQ)
}

// WriteByte blocks until the transmit holding register is empty, then
// writes b.
func WriteByte(b byte) { hwWriteByte(b) }

// Intr services the UART's receive-data-available interrupt: drains
// whatever bytes are ready into the receive ring. Called by the trap
// dispatcher when plic.Claim() returns UARTIRQ.
func Intr() {
	for {
		b, ok := hwTryReadByte()
		if !ok {
			return
		}
		rx.push(b)
	}
}

// Writer adapts WriteByte to io.Writer so klog can log straight to the
// console once boot reaches uart.Init.
type Writer struct{}

func (Writer) Write(p []byte) (int, error) {
	for _, b := range p {
		WriteByte(b)
	}
	return len(p), nil
}
