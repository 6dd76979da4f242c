//go:build !riscv64

package clint

import "sync/atomic"

// sim backs mtime/mtimecmp with plain memory for host builds, the same
// declare/simulate split internal/riscv uses for CSR access. mtime does not
// advance on its own here — tests call clint.AdvanceMtime to simulate the
// passage of time instead of sleeping a wall clock.
var sim struct {
	mtime    uint64
	mtimecmp uint64
}

func readMtime() uint64      { return atomic.LoadUint64(&sim.mtime) }
func readMtimecmp() uint64   { return atomic.LoadUint64(&sim.mtimecmp) }
func writeMtimecmp(v uint64) { atomic.StoreUint64(&sim.mtimecmp, v) }

// AdvanceMtime advances the simulated free-running counter by delta,
// standing in for real hardware ticking. Used by trap dispatcher tests to
// drive repeated timer interrupts.
func AdvanceMtime(delta uint64) {
	atomic.AddUint64(&sim.mtime, delta)
}
