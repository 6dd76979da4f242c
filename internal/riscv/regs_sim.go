//go:build !riscv64

package riscv

import "sync/atomic"

// sim backs the CSR primitives with plain memory on any host that isn't the
// real riscv64 target, so vmm/proc/trap unit tests can exercise scheduling
// and paging logic without hardware. trap.Dispatch's tests drive mcause/
// mepc/mtval through SimSetTrap rather than a real exception.
var sim struct {
	mcause  uint64
	mepc    uint64
	mtval   uint64
	mstatus uint64
	satp    uint64
}

func ReadMcause() uint64  { return atomic.LoadUint64(&sim.mcause) }
func ReadMepc() uint64    { return atomic.LoadUint64(&sim.mepc) }
func ReadMtval() uint64   { return atomic.LoadUint64(&sim.mtval) }
func ReadMstatus() uint64 { return atomic.LoadUint64(&sim.mstatus) }
func WriteMepc(pc uint64) { atomic.StoreUint64(&sim.mepc, pc) }
func WriteSatp(v uint64)  { atomic.StoreUint64(&sim.satp, v) }
func SfenceVMA()          {}

func IntrOn()  { atomic.StoreUint64(&sim.mstatus, atomic.LoadUint64(&sim.mstatus)|MstatusMIE) }
func IntrOff() { atomic.StoreUint64(&sim.mstatus, atomic.LoadUint64(&sim.mstatus)&^MstatusMIE) }

// Wfi is a no-op in simulation; the real target stalls the hart until the
// next interrupt.
func Wfi() {}

// MretTo simulates entering a process for the first time: it just records
// the requested sepc/mstatus, since there is no real privilege level to
// drop into on a host build. proc.forkret calls through this on every
// build, real and simulated alike.
func MretTo(sepc, mstatus uint64) {
	atomic.StoreUint64(&sim.mepc, sepc)
	atomic.StoreUint64(&sim.mstatus, mstatus)
}

// SimSetTrap seeds the simulated mcause/mepc/mtval registers a host test
// drives the trap dispatcher with, standing in for a real trap entry.
func SimSetTrap(mcause, mepc, mtval uint64) {
	atomic.StoreUint64(&sim.mcause, mcause)
	atomic.StoreUint64(&sim.mepc, mepc)
	atomic.StoreUint64(&sim.mtval, mtval)
}

// SimSatp returns the last value written to satp, for tests asserting on
// vmm.Activate.
func SimSatp() uint64 { return atomic.LoadUint64(&sim.satp) }
