// Package riscv declares the machine-mode CSR access primitives and the
// Sv39/trap-frame bit layouts the rest of the kernel builds on. Register
// access is a single instruction, so it is declared here in Go and
// implemented in regs_riscv64.s: the real csrr/csrw/csrs/csrc instructions
// for the riscv64 target, with a simulated register file standing in for
// host builds.
package riscv

// mstatus bits this kernel inspects or sets.
const (
	MstatusMIE  = 1 << 3  // global machine interrupt enable
	MstatusMPIE = 1 << 7  // previous MIE, restored by mret
	MstatusMPPShift = 11
	MstatusMPPMask  = 0x3 << MstatusMPPShift
	MPPMachine      = 3 << MstatusMPPShift // MPP=11: machine mode
)

// mcause layout: top bit distinguishes interrupt from exception.
const (
	CauseInterruptBit = 1 << 63
)

// Exception codes (mcause low bits when CauseInterruptBit is clear).
const (
	ExcInstrMisaligned = 0
	ExcInstrFault      = 1
	ExcIllegalInstr    = 2
	ExcBreakpoint      = 3
	ExcLoadMisaligned  = 4
	ExcLoadFault       = 5
	ExcStoreMisaligned = 6
	ExcStoreFault      = 7
	ExcEcallU          = 8
	ExcEcallS          = 9
	ExcEcallM          = 11
	ExcInstrPageFault  = 12
	ExcLoadPageFault   = 13
	ExcStorePageFault  = 15
)

// Interrupt codes (mcause low bits when CauseInterruptBit is set).
const (
	IntrMachineSoftware = 3
	IntrMachineTimer    = 7
	IntrMachineExternal = 11
)

// IsInterrupt and Code decode a raw mcause value.
func IsInterrupt(mcause uint64) bool { return mcause&CauseInterruptBit != 0 }
func Code(mcause uint64) uint64      { return mcause &^ CauseInterruptBit }

// Sv39 PTE flag bits: valid, readable, writable, executable, user-
// accessible, global, accessed, dirty.
const (
	PTE_V = 1 << 0
	PTE_R = 1 << 1
	PTE_W = 1 << 2
	PTE_X = 1 << 3
	PTE_U = 1 << 4
	PTE_G = 1 << 5
	PTE_A = 1 << 6
	PTE_D = 1 << 7
)

// PTEFlagsMask isolates the flag bits packed into PTE[9:0].
const PTEFlagsMask = 0x3FF

// PPNShift is where the 44-bit physical page number begins in a PTE.
const PPNShift = 10

// SatpModeSv39 is the MODE field value selecting Sv39 in satp[63:60].
const SatpModeSv39 = 8

// TrapFrameWords is the number of 8-byte registers the trampoline saves:
// ra, t0, t1, t2, a0..a5, a6, a7 (indices 0..11).
const TrapFrameWords = 12

// Trap frame slot indices, matching the save order in the assembly
// trampoline (trap_riscv64.s).
const (
	TFRa = 0
	TFT0 = 1
	TFT1 = 2
	TFT2 = 3
	TFA0 = 4
	TFA1 = 5
	TFA2 = 6
	TFA3 = 7
	TFA4 = 8
	TFA5 = 9
	TFA6 = 10
	TFA7 = 11
)

// TrapFrameBytes is the fixed 128-byte stack allocation the trampoline
// reserves for the trap frame, even though only TrapFrameWords*8 = 96
// bytes are currently assigned slots; the remaining bytes are alignment
// padding reserved by the trampoline.
const TrapFrameBytes = 128

// ReadMcause, ReadMepc, ReadMtval, ReadMstatus, WriteMepc, WriteSatp,
// SfenceVMA, IntrOn, IntrOff and Wfi are the CSR primitives every other
// package in this kernel builds on. Two implementations exist:
// regs_riscv64.go declares them as asm-backed functions for the real
// target (bodies in regs_riscv64.s); regs_sim.go backs them with an
// in-process simulated register file for host builds, so the vmm and
// proc packages stay unit-testable without real hardware.
