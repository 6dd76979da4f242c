// Package stats implements lightweight kernel counters: simple atomic
// event counts for scheduler and trap activity, gated by a single
// Enabled const so counting compiles out of the hot path entirely when
// flipped to false. There is no cycle-accurate timing counter here, since
// that would need a patched runtime this kernel does not carry (see
// DESIGN.md).
package stats

import "sync/atomic"

// Enabled toggles counter bookkeeping. Flip to false to compile counting out
// of the hot scheduler/trap path entirely at the call site.
const Enabled = true

// Counter is a monotonically increasing event counter.
type Counter struct {
	n int64
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	if Enabled {
		atomic.AddInt64(&c.n, 1)
	}
}

// Add increments the counter by delta.
func (c *Counter) Add(delta int64) {
	if Enabled {
		atomic.AddInt64(&c.n, delta)
	}
}

// Load returns the current counter value.
func (c *Counter) Load() int64 {
	return atomic.LoadInt64(&c.n)
}

// Kernel is the set of counters the kernel maintains across its lifetime.
var Kernel struct {
	TimerTicks      Counter
	ContextSwitches Counter
	Syscalls        Counter
	ExternalIRQs    Counter
	PageFaults      Counter
	Forks           Counter
	Exits           Counter
}
