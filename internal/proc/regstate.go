package proc

// RegState is the saved machine state of a process that is not currently
// running: the callee-saved integer registers plus the CSRs needed to
// resume or first-start it (sepc, mstatus), and a mirror of the full trap
// frame the process last entered the kernel through. SwitchContext's asm
// saves/restores Ra, Sp, S[0..11], Sepc and Mstatus on every context
// switch; the trap dispatcher additionally copies the live trap frame's
// registers (T0-T2, A0-A7) in here before running a syscall, so a
// synchronous operation like fork — which never goes through a context
// switch at all — still observes the register state the process actually
// trapped in with.
type RegState struct {
	Ra uint64
	Sp uint64
	S  [12]uint64 // s0..s11

	Sepc    uint64
	Mstatus uint64
	A0      uint64

	T0, T1, T2             uint64
	A1, A2, A3, A4, A5, A6 uint64
	A7                     uint64
}
