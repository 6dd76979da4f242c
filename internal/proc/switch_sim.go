//go:build !riscv64

package proc

// SwitchContext is a no-op in simulation: there is no real hart to save
// live registers from, so tests exercise the scheduler's bookkeeping
// (state transitions, queue membership) rather than actual control
// transfer. See internal/riscv's regs_sim.go for the same split applied
// to CSR access.
func SwitchContext(old, next *RegState) {}
