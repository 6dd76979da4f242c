package syscall

import (
	"testing"

	"rvkernel/internal/fs"
	"rvkernel/internal/layout"
	"rvkernel/internal/pmm"
	"rvkernel/internal/proc"
	"rvkernel/internal/vmm"
)

// freshKernel resets every package-level singleton Dispatch/ExecLookup
// read through, mirroring internal/trap's own freshScheduler helper.
func freshKernel(t *testing.T) {
	t.Helper()
	pmm.Kernel = pmm.Allocator{}
	pmm.Kernel.Init(layout.RAMBase, layout.RAMBase+layout.PageSize*128)
	vmm.Kernel = vmm.AddressSpace{}
	vmm.Kernel.Init()
	proc.Kernel = proc.Scheduler{}
	proc.Kernel.Init()
	fs.Kernel = fs.Table{}
}

func TestDispatchGetpidNoCurrentReturnsNegOne(t *testing.T) {
	freshKernel(t)
	got := Dispatch(SysGetpid, Args{}, 0)
	if got != ^uint64(0) {
		t.Fatalf("Dispatch(SysGetpid) with no current = %#x, want -1", got)
	}
}

func TestDispatchGetpidReturnsCurrentPid(t *testing.T) {
	freshKernel(t)
	p := proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()
	got := Dispatch(SysGetpid, Args{}, 0)
	if got != uint64(p.Pid) {
		t.Fatalf("Dispatch(SysGetpid) = %d, want %d", got, p.Pid)
	}
}

func TestDispatchForkReturnsChildPid(t *testing.T) {
	freshKernel(t)
	proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()

	got := Dispatch(SysFork, Args{}, 0x4000)
	if got == ^uint64(0) {
		t.Fatal("Dispatch(SysFork) failed")
	}
}

func TestDispatchKillUnknownPid(t *testing.T) {
	freshKernel(t)
	proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()

	got := Dispatch(SysKill, Args{999}, 0)
	if got != ^uint64(0) {
		t.Fatalf("Dispatch(SysKill) on an unknown pid = %#x, want -1", got)
	}
}

func TestDispatchUnknownSyscallReturnsNegOne(t *testing.T) {
	freshKernel(t)
	got := Dispatch(999, Args{}, 0)
	if got != ^uint64(0) {
		t.Fatalf("Dispatch(unknown) = %#x, want -1", got)
	}
}

// TestSysSbrkGrowsHeapPageGranular exercises SYS_SBRK's Open Question
// resolution: the first call lazily carves out the process's heap base,
// and each call maps exactly enough fresh pages to cover the new size.
func TestSysSbrkGrowsHeapPageGranular(t *testing.T) {
	freshKernel(t)
	p := proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()

	base := Dispatch(SysSbrk, Args{100}, 0)
	if base != uint64(p.BrkBase) {
		t.Fatalf("first sbrk return = %#x, want heap base %#x", base, p.BrkBase)
	}
	if p.BrkSize != 100 {
		t.Fatalf("BrkSize = %d, want 100", p.BrkSize)
	}
	if _, ok := vmm.Kernel.Translate(p.BrkBase); !ok {
		t.Fatal("sbrk did not map the first heap page")
	}

	second := Dispatch(SysSbrk, Args{uint64(layout.PageSize)}, 0)
	if second != uint64(p.BrkBase)+100 {
		t.Fatalf("second sbrk return = %#x, want %#x", second, uint64(p.BrkBase)+100)
	}
	if p.BrkSize != 100+layout.PageSize {
		t.Fatalf("BrkSize after second sbrk = %d, want %d", p.BrkSize, 100+layout.PageSize)
	}
}

func TestSysSbrkRejectsNegativeDelta(t *testing.T) {
	freshKernel(t)
	proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()

	if got := Dispatch(SysSbrk, Args{^uint64(0)}, 0); got != ^uint64(0) {
		t.Fatalf("Dispatch(SysSbrk, negative) = %#x, want -1", got)
	}
}

func TestSysSbrkRejectsGrowthPastPerProcHeap(t *testing.T) {
	freshKernel(t)
	proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()

	if got := Dispatch(SysSbrk, Args{uint64(layout.PerProcHeap) + 1}, 0); got != ^uint64(0) {
		t.Fatalf("Dispatch(SysSbrk, past PerProcHeap) = %#x, want -1", got)
	}
}

// TestSysWriteCopiesAcrossPageBoundary exercises sysWrite's page-at-a-time
// user->kernel copy for a length crossing a page boundary.
func TestSysWriteCopiesAcrossPageBoundary(t *testing.T) {
	freshKernel(t)
	p := proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()

	Dispatch(SysSbrk, Args{uint64(layout.PageSize) + 16}, 0)
	va := uint64(p.BrkBase)
	pa, ok := vmm.Kernel.Translate(uintptr(va))
	if !ok {
		t.Fatal("heap page should be mapped")
	}
	page := pmm.PageBytes(pa)
	for i := range page {
		page[i] = 'x'
	}

	n := Dispatch(SysWrite, Args{va, uint64(layout.PageSize) + 16}, 0)
	if n != uint64(layout.PageSize)+16 {
		t.Fatalf("Dispatch(SysWrite) = %d, want %d", n, uint64(layout.PageSize)+16)
	}
}

func TestSysWriteStopsAtUnmappedPage(t *testing.T) {
	freshKernel(t)
	n := Dispatch(SysWrite, Args{0xdead0000, 64}, 0)
	if n != 0 {
		t.Fatalf("Dispatch(SysWrite) on an unmapped address = %d, want 0", n)
	}
}

func TestExecLookupFindsRegisteredProgram(t *testing.T) {
	freshKernel(t)
	p := proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()
	fs.Kernel.Register("ls", 0x80100000)

	Dispatch(SysSbrk, Args{32}, 0)
	writeCString(t, p, "ls")

	entry, ok := ExecLookup(Args{uint64(p.BrkBase)})
	if !ok || entry != 0x80100000 {
		t.Fatalf("ExecLookup = %#x,%v, want %#x,true", entry, ok, 0x80100000)
	}
}

func TestExecLookupMissingProgramFails(t *testing.T) {
	freshKernel(t)
	p := proc.Kernel.Create("worker", 0x1000, 0)
	proc.Kernel.Schedule()
	Dispatch(SysSbrk, Args{32}, 0)
	writeCString(t, p, "nope")

	if _, ok := ExecLookup(Args{uint64(p.BrkBase)}); ok {
		t.Fatal("ExecLookup should fail for a name never registered")
	}
}

func writeCString(t *testing.T, p *proc.PCB, s string) {
	t.Helper()
	pa, ok := vmm.Kernel.Translate(p.BrkBase)
	if !ok {
		t.Fatal("heap page not mapped")
	}
	page := pmm.PageBytes(pa)
	copy(page[:], s)
	page[len(s)] = 0
}
