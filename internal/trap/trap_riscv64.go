//go:build riscv64

package trap

import "reflect"

// trapVectorEntry is the raw trampoline (body in trap_riscv64.s); it is
// never called directly from Go, only pointed at by mtvec. Its address,
// not its behavior as an ordinary function, is what Init needs.
func trapVectorEntry()

func trampolineAddr() uintptr {
	return reflect.ValueOf(trapVectorEntry).Pointer()
}

// setMtvec and enableTimerSource are declared here and implemented in
// trap_riscv64.s, one csrw/csrs instruction apiece, the same
// declare-in-Go/implement-in-asm split internal/riscv uses.
func setMtvec(addr uintptr)
func enableTimerSource()

// trapDispatchAsm is the landing pad the trampoline CALLs with the frame
// pointer in A0 (register X10), matching both RISC-V's hardware calling
// convention and Go's ABIInternal register assignment for a single
// pointer argument on riscv64 — the trampoline has no Go stack of its
// own to marshal arguments onto.
func trapDispatchAsm(frame *Frame) {
	Dispatch(frame)
}
