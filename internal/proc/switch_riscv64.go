//go:build riscv64

package proc

// SwitchContext saves the live ra/sp/s0..s11 and the mepc/mstatus CSRs
// into old, then loads the same registers from next and returns — at
// which point "returning" lands
// wherever next.Ra points, either back into whatever earlier call to
// SwitchContext parked that process, or at forkret for a process that has
// never run yet. Body in switch_riscv64.s.
func SwitchContext(old, next *RegState)
