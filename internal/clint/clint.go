// Package clint drives the core-local interruptor: the 64-bit free-running
// mtime counter and the per-hart mtimecmp compare register that together
// generate the machine-timer interrupt the scheduler rides on. This
// package keeps the exact two-register contract the hardware exposes
// rather than wrapping a richer timer abstraction this single-hart kernel
// has no use for.
package clint

// Reprogram sets mtimecmp for hart 0 to the current mtime plus interval,
// clearing the pending machine-timer interrupt and scheduling the next
// one. Called once from trap.Init and again on every timer trap.
func Reprogram(interval uint64) {
	writeMtimecmp(readMtime() + interval)
}

// Mtime returns the current value of the free-running 64-bit timer.
func Mtime() uint64 { return readMtime() }

// Mtimecmp returns the current hart-0 compare value, exposed for tests and
// diagnostics.
func Mtimecmp() uint64 { return readMtimecmp() }
