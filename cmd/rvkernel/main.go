// Command rvkernel is the kernel image's entry point: it brings up the
// UART, the trap dispatcher, the PLIC, the physical and virtual memory
// managers, the scheduler, the VirtIO block device and the program
// table, creates the first process, enables interrupts, and idles.
//
// Initialization order matters: trap_init/plic_init run before kinit so a
// spurious early trap has somewhere to land; vmm_init/vmm_activate run
// before scheduler_init so the first process's kernel stack is already
// identity-mapped; blk_init runs before fs_init so the program table has
// a disk to read from.
package main

import (
	"reflect"

	"rvkernel/internal/klog"
	"rvkernel/internal/plic"
	"rvkernel/internal/pmm"
	"rvkernel/internal/proc"
	"rvkernel/internal/riscv"
	"rvkernel/internal/trap"
	"rvkernel/internal/uart"
	"rvkernel/internal/vmm"
)

const logTag = "main"

func main() {
	uart.Init()
	klog.SetWriter(uart.Writer{})
	trap.Init()
	plic.Init()

	klog.Info(logTag, "initializing kernel...")
	pmm.Kernel.Init(heapStart(), heapEnd())
	vmm.Kernel.Init()
	if err := vmm.Kernel.SelfTest(); err != nil {
		klog.Error(logTag, "vmm self-test failed: %v", err)
		panic(err)
	}
	vmm.Kernel.Activate()
	proc.Kernel.Init()

	shellEntry := uintptr(reflect.ValueOf(shell).Pointer())
	initStorage(shellEntry)

	if p := proc.Kernel.Create("shell", shellEntry, 0); p == nil {
		klog.Error(logTag, "failed to create shell process")
		for {
			riscv.Wfi()
		}
	}

	klog.Info(logTag, "welcome to rvkernel!")
	klog.Info(logTag, "enabling interrupts...")
	riscv.IntrOn()
	for {
		riscv.Wfi()
	}
}
