//go:build !riscv64

package trap

// On a host build there is no mtvec CSR and no real trampoline; tests
// drive Dispatch directly against a Frame after seeding mcause/mepc/mtval
// through riscv.SimSetTrap, the same substitution regs_sim.go makes for
// every other CSR-backed package in this kernel.
func trampolineAddr() uintptr { return 0 }
func setMtvec(addr uintptr)   {}
func enableTimerSource()      {}
