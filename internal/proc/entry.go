package proc

import (
	"reflect"

	"rvkernel/internal/riscv"
)

// idleEntry is the idle process's entire program: enable interrupts and
// wait for one, forever. A timer interrupt drives the trap handler, which
// calls Schedule, which either finds real work or lands right back here —
// idle_entry.
func idleEntry() {
	for {
		riscv.IntrOn()
		riscv.Wfi()
	}
}

// forkret is where every process's Ra initially points (set in newPCB).
// The first time SwitchContext "returns" into a brand-new process, it
// returns here instead of to some earlier call site, and forkret enters
// the process the same way a trap return would: load sepc/mstatus from
// the PCB Schedule just switched to and transfer control — forkret.
func forkret() {
	p := Kernel.current
	riscv.MretTo(p.Regstat.Sepc, p.Regstat.Mstatus)
}

// parkForever spins on wfi, the fallback loop proc_exit and
// proc_suspend_current fall into if they are somehow resumed after the
// scheduler should have switched away from them for good.
func parkForever() {
	for {
		riscv.Wfi()
	}
}

func idleEntryAddr() uint64 {
	return uint64(reflect.ValueOf(idleEntry).Pointer())
}

func forkretAddr() uint64 {
	return uint64(reflect.ValueOf(forkret).Pointer())
}
