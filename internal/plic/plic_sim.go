//go:build !riscv64

package plic

import "sync"

// sim backs Claim/Complete with an in-memory pending-IRQ queue for host
// builds, so internal/trap's tests can drive external-interrupt dispatch
// without real PLIC hardware.
var sim struct {
	sync.Mutex
	pending   []uint32
	completed []uint32
}

func hwEnable(irq uint32)         {}
func hwSetThreshold(level uint32) {}

func hwClaim() uint32 {
	sim.Lock()
	defer sim.Unlock()
	if len(sim.pending) == 0 {
		return 0
	}
	irq := sim.pending[0]
	sim.pending = sim.pending[1:]
	return irq
}

func hwComplete(irq uint32) {
	sim.Lock()
	defer sim.Unlock()
	sim.completed = append(sim.completed, irq)
}

// SimPend queues irq as pending, for tests to simulate an external
// interrupt before driving trap.Dispatch.
func SimPend(irq uint32) {
	sim.Lock()
	defer sim.Unlock()
	sim.pending = append(sim.pending, irq)
}

// SimCompleted returns every IRQ number passed to Complete so far, for
// tests asserting the dispatcher always completes what it claims.
func SimCompleted() []uint32 {
	sim.Lock()
	defer sim.Unlock()
	out := make([]uint32, len(sim.completed))
	copy(out, sim.completed)
	return out
}
