// Package trap is the kernel's trap dispatcher: the single entry point
// every ecall, exception and interrupt funnels through. The riscv64
// trampoline (trap_riscv64.s) saves the twelve-word trap frame into a
// Frame, calls Dispatch, restores the frame, and executes mret; Init
// programs mtvec, the mie CSR's timer-enable bit, and the first timer
// tick.
//
// Before running a syscall, Dispatch copies the live trap frame's
// registers into the current process's RegState: a syscall like fork
// runs synchronously inside the very ecall that trapped, with no
// intervening context switch to have captured its register state any
// other way, so without this copy the PCB's RegState would still hold
// whatever it last had as of the process's previous genuine suspension.
package trap

import (
	"rvkernel/internal/clint"
	"rvkernel/internal/klog"
	"rvkernel/internal/layout"
	"rvkernel/internal/plic"
	"rvkernel/internal/proc"
	"rvkernel/internal/riscv"
	"rvkernel/internal/stats"
	"rvkernel/internal/syscall"
	"rvkernel/internal/uart"
	"rvkernel/internal/virtio"
)

const logTag = "trap"

// Frame is the trap frame the trampoline saves on entry, field order
// matching the save order in trap_riscv64.s (offsets 0, 8, 16, ... 88):
// ra, t0, t1, t2, a0..a5, a6, a7.
type Frame struct {
	Ra, T0, T1, T2         uint64
	A0, A1, A2, A3, A4, A5 uint64
	A6, A7                 uint64
}

// Init points mtvec at the trampoline, enables the machine-timer
// interrupt source in mie, and arms the first timer tick.
// Interrupts stay globally masked (mstatus.MIE) until the boot sequence
// calls riscv.IntrOn once the scheduler and drivers are ready to run.
func Init() {
	setMtvec(trampolineAddr())
	enableTimerSource()
	clint.Reprogram(layout.TimerInterval)
	klog.Info(logTag, "mtvec initialized, timer armed")
}

// Dispatch decodes mcause and routes to the scheduler, a device driver's
// interrupt handler, or a syscall, mutating frame and the mepc CSR in
// place so the trampoline's mret resumes at the right address with the
// right a0 (and, for exec, a1).
func Dispatch(frame *Frame) {
	mcause := riscv.ReadMcause()
	mepc := riscv.ReadMepc()

	if riscv.IsInterrupt(mcause) {
		dispatchInterrupt(riscv.Code(mcause))
		return
	}
	dispatchException(riscv.Code(mcause), mepc, frame)
}

func dispatchInterrupt(code uint64) {
	switch code {
	case riscv.IntrMachineTimer:
		stats.Kernel.TimerTicks.Inc()
		clint.Reprogram(layout.TimerInterval)
		proc.Kernel.Schedule()
	case riscv.IntrMachineExternal:
		stats.Kernel.ExternalIRQs.Inc()
		routeExternalIRQ()
	default:
		klog.Error(logTag, "unknown interrupt code=%#x", code)
	}
}

// routeExternalIRQ claims the pending IRQ and hands it to the owning
// driver: VirtIO block completions for IRQs 1..8, the UART receive ring
// for IRQ 10.
func routeExternalIRQ() {
	irq := plic.Claim()
	if irq == 0 {
		return
	}
	switch {
	case irq >= plic.VirtioIRQMin && irq <= plic.VirtioIRQMax:
		virtio.Kernel.Intr()
	case irq == plic.UARTIRQ:
		uart.Intr()
	default:
		klog.Error(logTag, "unexpected irq %d", irq)
	}
	plic.Complete(irq)
}

func dispatchException(code, mepc uint64, frame *Frame) {
	switch code {
	case riscv.ExcEcallU, riscv.ExcEcallM:
		dispatchEcall(mepc, frame)
	default:
		// Any exception other than ecall is treated as a fatal process
		// error, to avoid looping back into the same faulting
		// instruction forever. With no process to blame, the hart halts.
		if p := proc.Kernel.Current(); p != nil {
			klog.Error(logTag, "process %d got exception code=%d, exiting", p.Pid, code)
			proc.Kernel.Exit() // never returns
		}
		klog.Error(logTag, "exception code=%d with no current process, halting", code)
		for {
			riscv.Wfi()
		}
	}
}

// dispatchEcall handles a syscall trap, special-casing SYS_EXEC (it
// rewrites mepc to the new program's entry point instead of returning a
// value through a0 alone) and otherwise routing through syscall.Dispatch.
func dispatchEcall(mepc uint64, frame *Frame) {
	mirrorFrame(mepc, frame)

	num := frame.A7
	args := syscall.Args{frame.A0, frame.A1, frame.A2, frame.A3, frame.A4, frame.A5}

	if num == syscall.SysExec {
		entry, ok := syscall.ExecLookup(args)
		if !ok {
			frame.A0 = ^uint64(0)
			riscv.WriteMepc(mepc + 4)
			return
		}
		frame.A0 = 0
		frame.A1 = 0
		riscv.WriteMepc(entry)
		return
	}

	stats.Kernel.Syscalls.Inc()
	frame.A0 = syscall.Dispatch(num, args, mepc)
	riscv.WriteMepc(mepc + 4)
}

// mirrorFrame copies the trap frame a process just entered the kernel
// through into that process's RegState, ahead of any syscall that might
// read it without the benefit of a prior context switch — fork is the
// case that matters, since it clones the current RegState into the
// child and must see the register values live at the ecall, not
// whatever they were the last time this process was switched out.
func mirrorFrame(mepc uint64, frame *Frame) {
	p := proc.Kernel.Current()
	if p == nil {
		return
	}
	rs := &p.Regstat
	rs.Ra, rs.T0, rs.T1, rs.T2 = frame.Ra, frame.T0, frame.T1, frame.T2
	rs.A0, rs.A1, rs.A2, rs.A3, rs.A4, rs.A5 = frame.A0, frame.A1, frame.A2, frame.A3, frame.A4, frame.A5
	rs.A6, rs.A7 = frame.A6, frame.A7
	rs.Sepc = mepc
	rs.Mstatus = riscv.ReadMstatus()
}
