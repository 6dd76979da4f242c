//go:build riscv64

package main

// heapStart and heapEnd are provided by the linker script as the
// boundaries of the physical memory left over after the kernel image
// itself, declared here as asm-backed address-returning functions
// (heap_riscv64.s) rather than Go data symbols, the same declare-in-Go/
// implement-in-asm split internal/riscv's CSR primitives use.
func heapStart() uintptr
func heapEnd() uintptr
