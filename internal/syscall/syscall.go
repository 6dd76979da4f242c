// Package syscall is the kernel's syscall number table and in-kernel
// handlers: SYS_EXIT, SYS_FORK, SYS_WAIT, SYS_GETPID, SYS_KILL, SYS_SBRK,
// SYS_WRITE, SYS_PS, alongside SYS_EXEC, which the trap dispatcher
// special-cases itself rather than routing through Dispatch.
//
// Dispatch is a thin number->handler switch — all the real work lives in
// internal/proc, internal/vmm, internal/fs, and internal/uart.
package syscall

import (
	"rvkernel/internal/fs"
	"rvkernel/internal/layout"
	"rvkernel/internal/pmm"
	"rvkernel/internal/proc"
	"rvkernel/internal/uart"
	"rvkernel/internal/vmm"
)

// Syscall numbers. SYS_EXEC is reserved here for documentation even
// though internal/trap special-cases it before ever reaching Dispatch.
const (
	SysExit = iota
	SysFork
	SysWait
	SysGetpid
	SysKill
	SysSbrk
	SysWrite
	SysPs
	SysExec
)

// Args is the fixed six-argument slice every ecall carries (a0..a5).
type Args [6]uint64

// Dispatch runs the in-kernel handler for num and returns the value to be
// written into the caller's a0. mepc is the trap-time return address,
// needed only by SYS_FORK (the child resumes at mepc+4).
func Dispatch(num uint64, args Args, mepc uint64) uint64 {
	switch num {
	case SysExit:
		proc.Kernel.Exit() // never returns
		return 0
	case SysFork:
		return sysFork(mepc)
	case SysWait:
		return uint64(int64(proc.Kernel.WaitAndReap()))
	case SysGetpid:
		if p := proc.Kernel.Current(); p != nil {
			return uint64(p.Pid)
		}
		return ^uint64(0)
	case SysKill:
		if proc.Kernel.Kill(int(int64(args[0]))) {
			return 0
		}
		return ^uint64(0) // -1
	case SysSbrk:
		return sysSbrk(int64(args[0]))
	case SysWrite:
		return sysWrite(args[0], args[1])
	case SysPs:
		proc.Kernel.Dump()
		return 0
	default:
		return ^uint64(0) // -1: unknown syscall number
	}
}

func sysFork(mepc uint64) uint64 {
	child := proc.Kernel.Fork(mepc)
	if child == nil {
		return ^uint64(0)
	}
	return uint64(child.Pid)
}

// sysSbrk grows the current process's user heap by delta bytes,
// page-granular, lazily carving out its heap region on first use. delta
// must be nonnegative and the resulting size must fit within
// layout.PerProcHeap; this kernel never shrinks a heap, and a heap that
// outgrew its slot would map pages into the neighboring process's region.
func sysSbrk(delta int64) uint64 {
	p := proc.Kernel.Current()
	if p == nil || delta < 0 {
		return ^uint64(0)
	}
	if p.BrkBase == 0 {
		p.BrkBase = uintptr(layout.HeapUserBase) + uintptr(p.Pid)*layout.PerProcHeap
	}

	oldSize := p.BrkSize
	newSize := oldSize + uint64(delta)
	if newSize > layout.PerProcHeap {
		return ^uint64(0)
	}
	oldPages := (oldSize + layout.PageSize - 1) / layout.PageSize
	newPages := (newSize + layout.PageSize - 1) / layout.PageSize

	for i := oldPages; i < newPages; i++ {
		va := p.BrkBase + uintptr(i)*layout.PageSize
		if !vmm.Kernel.MapPage(va, vmm.RW|vmm.USER) {
			for j := oldPages; j < i; j++ {
				vmm.Kernel.Unmap(p.BrkBase+uintptr(j)*layout.PageSize, true)
			}
			return ^uint64(0)
		}
	}
	p.BrkSize = newSize
	return uint64(p.BrkBase) + oldSize
}

// sysWrite copies len bytes starting at user virtual address va to the
// console, one page at a time via vmm.Kernel.Translate. There is no real
// file-descriptor table in this kernel, so every write goes to the
// console.
func sysWrite(va, length uint64) uint64 {
	written := uint64(0)
	for written < length {
		cur := uintptr(va + written)
		pageOff := int(cur % layout.PageSize)
		pa, ok := vmm.Kernel.Translate(cur)
		if !ok {
			return written
		}
		n := layout.PageSize - pageOff
		if remain := length - written; uint64(n) > remain {
			n = int(remain)
		}
		page := pmm.PageBytes(pa - uintptr(pageOff))
		for i := 0; i < n; i++ {
			uart.WriteByte(page[pageOff+i])
		}
		written += uint64(n)
	}
	return written
}

// ExecLookup resolves the program name stored at user virtual address
// args[0] (a NUL-terminated string, up to internal/pname's MaxLen bytes)
// against the program table, returning its entry point. internal/trap
// calls this directly for SYS_EXEC rather than routing it through
// Dispatch, since exec needs to rewrite mepc itself.
func ExecLookup(args Args) (uint64, bool) {
	name, ok := readCString(uintptr(args[0]), 20)
	if !ok {
		return 0, false
	}
	return fs.Kernel.Lookup(name)
}

func readCString(va uintptr, maxLen int) (string, bool) {
	pageOff := int(va % layout.PageSize)
	pa, ok := vmm.Kernel.Translate(va)
	if !ok {
		return "", false
	}
	page := pmm.PageBytes(pa - uintptr(pageOff))
	end := pageOff + maxLen
	if end > len(page) {
		end = len(page)
	}
	for i := pageOff; i < end; i++ {
		if page[i] == 0 {
			return string(page[pageOff:i]), true
		}
	}
	return "", false
}
