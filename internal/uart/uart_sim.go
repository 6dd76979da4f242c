//go:build !riscv64

package uart

import (
	"os"
	"sync"
)

// sim backs the UART's TX path with os.Stdout and its RX path with an
// injectable queue, so host tests (and the simulated boot path in
// cmd/rvkernel) can exercise SYS_WRITE and console Intr without hardware.
var simRX = struct {
	sync.Mutex
	pending []byte
}{}

func hwInit() {}

func hwWriteByte(b byte) { os.Stdout.Write([]byte{b}) }

func hwTryReadByte() (byte, bool) {
	simRX.Lock()
	defer simRX.Unlock()
	if len(simRX.pending) == 0 {
		return 0, false
	}
	b := simRX.pending[0]
	simRX.pending = simRX.pending[1:]
	return b, true
}

// SimInject queues bytes as though they had arrived over the wire, for
// tests driving Intr.
func SimInject(b []byte) {
	simRX.Lock()
	defer simRX.Unlock()
	simRX.pending = append(simRX.pending, b...)
}
