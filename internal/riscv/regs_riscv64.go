//go:build riscv64

package riscv

// These declare the asm-backed CSR primitives; their bodies live in
// regs_riscv64.s, one csrr/csrw/csrs/csrc instruction apiece.
func ReadMcause() uint64
func ReadMepc() uint64
func ReadMtval() uint64
func ReadMstatus() uint64
func WriteMepc(pc uint64)
func WriteSatp(v uint64)
func SfenceVMA()
func IntrOn()
func IntrOff()
func Wfi()

// MretTo writes mepc and mstatus, then executes mret, transferring control
// to sepc with mstatus restored from mstatus. forkret uses this to enter a
// process for the first time the same way it would resume from a trap.
func MretTo(sepc, mstatus uint64)
