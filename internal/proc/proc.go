// Package proc implements the process subsystem: PCB lifecycle
// (create/fork/exit/wait/kill), the three process lists, PID allocation,
// and the round-robin scheduler.
//
// Every list mutation brackets itself with riscv.IntrOff/IntrOn instead
// of a mutex: the kernel runs a single hart, so the only other way into
// this code is a trap handler on that same hart, and IntrOff already
// excludes that. A spinlock here would be redundant at best.
package proc

import (
	"rvkernel/internal/klog"
	"rvkernel/internal/layout"
	"rvkernel/internal/pmm"
	"rvkernel/internal/riscv"
	"rvkernel/internal/stats"
	"rvkernel/internal/vmm"
)

const logTag = "proc"

// Scheduler holds every piece of mutable process-subsystem state. Kernel
// is the one instance the boot sequence initializes and every syscall
// handler operates on; tests construct their own to stay isolated from
// each other.
type Scheduler struct {
	ready   procQueue
	blocked stackList
	zombies stackList

	idle    *PCB
	current *PCB
	nextPid int

	bootCtx RegState
}

// Kernel is the system-wide scheduler, initialized once at boot.
var Kernel Scheduler

// Current returns the PCB currently running on this hart, or nil before
// the first Schedule call.
func (s *Scheduler) Current() *PCB { return s.current }

// Idle returns the idle PCB singleton.
func (s *Scheduler) Idle() *PCB { return s.idle }

// Init creates the idle process and makes the scheduler ready to run.
// Init is idempotent: calling it again once the idle process exists is a
// no-op.
func (s *Scheduler) Init() {
	if s.idle != nil {
		return
	}
	klog.Info(logTag, "scheduler init")

	idle := s.newPCB("IDLE", 0, 0)
	idle.Pid = 0
	s.nextPid = 1
	idle.State = Ready
	idle.Regstat.Sepc = idleEntryAddr()
	s.idle = idle

	klog.Info(logTag, "scheduler & idle process initialized")
}

// newPCB allocates a zeroed PCB plus a one-page kernel stack and fills in
// the fields every PCB needs regardless of how it was created.
func (s *Scheduler) newPCB(name string, entrypoint uintptr, prior int) *PCB {
	p := &PCB{}
	p.Pid = s.nextPid
	s.nextPid++
	p.State = Ready
	p.Prior = prior
	p.Entrypoint = entrypoint
	p.Name.Set(name)

	stack, ok := pmm.Kernel.Alloc()
	if !ok {
		panic("proc: out of physical memory for a kernel stack")
	}
	p.StackTop = stack + layout.PageSize

	p.Regstat = RegState{}
	p.Regstat.Ra = forkretAddr()
	p.Regstat.Sepc = uint64(entrypoint)
	p.Regstat.Sp = uint64(p.StackTop)
	p.Regstat.Mstatus = riscv.MPPMachine | riscv.MstatusMPIE

	return p
}

// Create allocates a new process ready to run at entrypoint and enqueues
// it.
func (s *Scheduler) Create(name string, entrypoint uintptr, prior int) *PCB {
	riscv.IntrOff()
	defer riscv.IntrOn()

	p := s.newPCB(name, entrypoint, prior)
	s.ready.enqueue(p)
	return p
}

// Fork duplicates the currently running process: a fresh PCB, a byte-for-
// byte copy of its kernel stack (with the stack pointer rebased onto the
// new stack), a0 forced to 0 for the child, and sepc advanced past the
// ecall that invoked it. mepc is the trap-time epc value (the address of
// the ecall instruction); the child resumes at mepc+4. Returns nil if
// there is no current process or the kernel is out of memory.
func (s *Scheduler) Fork(mepc uint64) *PCB {
	riscv.IntrOff()
	defer riscv.IntrOn()

	parent := s.current
	if parent == nil {
		return nil
	}

	child := &PCB{}
	child.Pid = s.nextPid
	s.nextPid++
	child.State = Ready
	child.Prior = parent.Prior
	child.Entrypoint = parent.Entrypoint
	child.Name = parent.Name
	child.Regstat = parent.Regstat
	child.Ppid = parent.Pid

	stack, ok := pmm.Kernel.Alloc()
	if !ok {
		return nil
	}
	copyPage(stack, parent.StackTop-layout.PageSize)
	child.StackTop = stack + layout.PageSize

	spOffset := parent.StackTop - uintptr(parent.Regstat.Sp)
	child.Regstat.Sp = uint64(child.StackTop - spOffset)
	child.Regstat.A0 = 0
	child.Regstat.Sepc = mepc + 4

	if parent.BrkBase != 0 && parent.BrkSize > 0 {
		child.BrkBase = uintptr(layout.HeapUserBase) + uintptr(child.Pid)*layout.PerProcHeap
		child.BrkSize = parent.BrkSize
		if !copyHeap(child.BrkBase, parent.BrkBase, parent.BrkSize) {
			pmm.Kernel.Free(stack)
			return nil
		}
	}

	s.ready.enqueue(child)
	stats.Kernel.Forks.Inc()
	return child
}

// copyHeap maps brkSize bytes of heap for dst and copies from src,
// rolling every page it mapped back out on the first failure.
func copyHeap(dst, src uintptr, brkSize uint64) bool {
	pages := (brkSize + layout.PageSize - 1) / layout.PageSize
	for i := uint64(0); i < pages; i++ {
		dstVA := dst + uintptr(i)*layout.PageSize
		if !vmm.Kernel.MapPage(dstVA, vmm.RW|vmm.USER) {
			for j := uint64(0); j < i; j++ {
				vmm.Kernel.Unmap(dst+uintptr(j)*layout.PageSize, true)
			}
			return false
		}
		srcVA := src + uintptr(i)*layout.PageSize
		copyPage(dstVA, srcVA)
	}
	return true
}

// WaitAndReap blocks the current process until a zombie child exists, then
// reaps the first one found, freeing its stack and heap and folding its
// accounting into the caller's own. Returns the reaped child's pid, or -1
// if there is no current process at all.
func (s *Scheduler) WaitAndReap() int {
	if s.current == nil {
		return -1
	}
	for {
		riscv.IntrOff()
		mypid := s.current.Pid
		if child, ok := s.tryReapLocked(mypid); ok {
			s.current.Accnt.Add(&child.Accnt)
			riscv.IntrOn()
			return child.Pid
		}

		s.current.State = Blocked
		s.blocked.push(s.current)
		s.Schedule()
	}
}

// tryReapLocked reaps the first zombie child of mypid, if any. Caller must
// have interrupts off; factored out of WaitAndReap so the non-blocking
// fast path is independently testable without driving the scheduler's
// full yield loop.
func (s *Scheduler) tryReapLocked(mypid int) (*PCB, bool) {
	child := s.zombies.removeFirst(func(p *PCB) bool { return p.Ppid == mypid })
	if child == nil {
		return nil, false
	}
	s.reapLocked(child)
	return child, true
}

// reapLocked frees a zombie's stack and heap and, if it happened to be the
// most recently allocated pid, lets the pid be reused. Caller must have
// interrupts off.
func (s *Scheduler) reapLocked(p *PCB) {
	klog.Info(logTag, "reaping pid=%d: free stack", p.Pid)
	pmm.Kernel.Free(p.StackTop - layout.PageSize)
	s.freeHeapLocked(p)
	if p.Pid == s.nextPid-1 && s.nextPid > 1 {
		s.nextPid--
	}
}

func (s *Scheduler) freeHeapLocked(p *PCB) {
	if p.BrkBase == 0 || p.BrkSize == 0 {
		return
	}
	klog.Info(logTag, "pid=%d: free heap (size=%d)", p.Pid, p.BrkSize)
	pages := (p.BrkSize + layout.PageSize - 1) / layout.PageSize
	for i := uint64(0); i < pages; i++ {
		vmm.Kernel.Unmap(p.BrkBase+uintptr(i)*layout.PageSize, true)
	}
}

// Exit moves the current process to the zombie list and wakes its parent
// if it is blocked in WaitAndReap, then yields the CPU for good. Exit
// does not return.
func (s *Scheduler) Exit() {
	riscv.IntrOff()
	if s.current == nil {
		riscv.IntrOn()
		return
	}
	s.exitBookkeepingLocked()
	s.Schedule()
	parkForever()
}

// exitBookkeepingLocked moves the current process to the zombie list and
// wakes its parent if blocked in WaitAndReap. Caller must have interrupts
// off; factored out of Exit so the bookkeeping half is independently
// testable apart from Exit's intentional infinite park loop.
func (s *Scheduler) exitBookkeepingLocked() {
	self := s.current
	self.State = Terminated
	s.zombies.push(self)
	klog.Info(logTag, "process %d exited, added to zombie list", self.Pid)
	stats.Kernel.Exits.Inc()

	if self.Ppid != 0 {
		if parent := s.blocked.removeFirst(func(p *PCB) bool { return p.Pid == self.Ppid }); parent != nil {
			parent.State = Ready
			s.ready.enqueue(parent)
		}
	}
}

// zombiesFree reaps every orphan zombie (ppid == 0) outright, since no
// wait() call will ever claim them — zombies_free. Zombies with a live
// parent are left for WaitAndReap. Caller must have interrupts off.
func (s *Scheduler) zombiesFree() {
	orphans := s.zombies.removeAll(func(p *PCB) bool { return p.Ppid == 0 })
	for _, p := range orphans {
		klog.Info(logTag, "reaping orphan pid=%d", p.Pid)
		s.reapLocked(p)
	}
}

// SuspendCurrent blocks the current process (used by background workers
// that want to exist without consuming CPU) and schedules another one.
// A no-op for the idle process or when there is no current process.
func (s *Scheduler) SuspendCurrent() {
	riscv.IntrOff()
	if s.current == nil || s.current == s.idle {
		riscv.IntrOn()
		return
	}
	s.current.State = Blocked
	s.blocked.push(s.current)
	s.Schedule()
}

// Kill removes the pid from whichever list holds it and frees its
// resources immediately without producing a zombie, except when pid names
// the current process, in which case Kill is Exit. Returns false if pid
// is idle's pid, negative, or not found anywhere.
func (s *Scheduler) Kill(pid int) bool {
	riscv.IntrOff()
	if pid < 0 {
		riscv.IntrOn()
		return false
	}
	if s.idle != nil && s.idle.Pid == pid {
		riscv.IntrOn()
		return false
	}
	if s.current != nil && s.current.Pid == pid {
		riscv.IntrOn()
		s.Exit()
		return true // unreached
	}

	if p := s.ready.remove(func(p *PCB) bool { return p.Pid == pid }); p != nil {
		s.freePCB(p)
		riscv.IntrOn()
		return true
	}
	if p := s.blocked.removeFirst(func(p *PCB) bool { return p.Pid == pid }); p != nil {
		s.freePCB(p)
		riscv.IntrOn()
		return true
	}
	if p := s.zombies.removeFirst(func(p *PCB) bool { return p.Pid == pid }); p != nil {
		s.freePCB(p)
		riscv.IntrOn()
		return true
	}
	riscv.IntrOn()
	return false
}

// freePCB releases a PCB's stack and heap. It must never be called on the
// currently running process (that would free the stack still in use).
func (s *Scheduler) freePCB(p *PCB) {
	klog.Info(logTag, "shutdown cleanup pid=%d: free stack", p.Pid)
	pmm.Kernel.Free(p.StackTop - layout.PageSize)
	s.freeHeapLocked(p)
}

// Schedule picks the next PCB to run and switches to it. On the very
// first call (no current process yet) it switches away from a throwaway
// boot context and never returns to it.
func (s *Scheduler) Schedule() {
	riscv.IntrOff()

	next := s.ready.dequeue()
	if next == nil {
		if s.current != nil && s.current.State == Running && s.current != s.idle {
			next = s.current
		} else {
			next = s.idle
		}
	}

	if next == s.current && next.State == Running {
		s.zombiesFree()
		riscv.IntrOn()
		return
	}

	old := s.current
	stats.Kernel.ContextSwitches.Inc()

	if old == nil {
		next.State = Running
		s.current = next
		SwitchContext(&s.bootCtx, &next.Regstat)
		riscv.IntrOn()
		return
	}

	if old.State == Running {
		old.State = Ready
		if old != s.idle {
			s.ready.enqueue(old)
		}
	}

	next.State = Running
	s.current = next
	SwitchContext(&old.Regstat, &next.Regstat)

	s.zombiesFree()
	riscv.IntrOn()
}

// ShutdownAll frees every PCB in every list except idle and the currently
// running process. Caller must already have interrupts disabled and must
// not schedule afterward.
func (s *Scheduler) ShutdownAll() {
	self := s.current

	for p := s.ready.head; p != nil; {
		next := p.Next
		if p != s.idle && p != self {
			s.freePCB(p)
		}
		p = next
	}
	s.ready = procQueue{}

	for p := s.blocked.drain(); p != nil; {
		next := p.Next
		if p != s.idle && p != self {
			s.freePCB(p)
		}
		p = next
	}

	for p := s.zombies.drain(); p != nil; {
		next := p.Next
		if p != s.idle && p != self {
			s.freePCB(p)
		}
		p = next
	}
}

// Dump logs every process's pid/state/name across the current process,
// idle, and all three lists.
func (s *Scheduler) Dump() {
	klog.Info(logTag, "==== process list ====")
	if s.current != nil {
		klog.Info(logTag, "current pid=%d state=%s name=%s", s.current.Pid, s.current.State, s.current.Name)
	}
	if s.idle != nil {
		klog.Info(logTag, "idle   pid=%d state=%s name=%s", s.idle.Pid, s.idle.State, s.idle.Name)
	}
	for p := s.ready.head; p != nil; p = p.Next {
		klog.Info(logTag, "ready  pid=%d state=%s name=%s", p.Pid, p.State, p.Name)
	}
	s.blocked.forEach(func(p *PCB) {
		klog.Info(logTag, "blocked pid=%d state=%s name=%s", p.Pid, p.State, p.Name)
	})
	s.zombies.forEach(func(p *PCB) {
		klog.Info(logTag, "zombie pid=%d state=%s name=%s", p.Pid, p.State, p.Name)
	})
}

func copyPage(dstPA, srcPA uintptr) {
	dst := pmm.PageBytes(dstPA)
	src := pmm.PageBytes(srcPA)
	*dst = *src
}
