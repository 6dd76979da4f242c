// Package accnt tracks per-process CPU time: nanoseconds spent running the
// process's own code versus nanoseconds spent in the kernel on its behalf.
package accnt

import (
	"sync"
	"sync/atomic"
	"time"
)

// Accnt accumulates one process's CPU usage. The embedded mutex lets Add
// take a consistent combined snapshot when a parent folds a reaped child's
// usage into its own.
type Accnt struct {
	Userns int64
	Sysns  int64
	mu     sync.Mutex
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// Now returns the current time in nanoseconds, the clock accounting
// measures against.
func Now() int64 { return time.Now().UnixNano() }

// Add merges n's usage into a, used when a parent reaps a zombie child and
// folds its accounting into its own before freeing the PCB.
func (a *Accnt) Add(n *Accnt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Userns += atomic.LoadInt64(&n.Userns)
	a.Sysns += atomic.LoadInt64(&n.Sysns)
}

// Snapshot returns a consistent (Userns, Sysns) pair.
func (a *Accnt) Snapshot() (userns, sysns int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Userns, a.Sysns
}
