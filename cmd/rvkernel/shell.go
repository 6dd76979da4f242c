package main

import "rvkernel/internal/uart"

// shell is the first user process's entire program: an echo loop reading
// from the UART receive ring and writing back to the console. The
// original kernel's own shell (user_shell) was not retrieved into this
// pack; this is a minimal stand-in exercising the same console path
// (internal/uart's ring, fed by internal/trap's external-IRQ routing)
// real shell input/output would use, the same way internal/proc's
// idleEntry is a minimal stand-in for "do nothing, wait for work".
func shell() {
	for {
		b, ok := uart.ReadByte()
		if !ok {
			continue
		}
		uart.WriteByte(b)
	}
}
