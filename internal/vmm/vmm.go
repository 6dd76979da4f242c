// Package vmm builds and manages the kernel's single Sv39 root page table.
// There is exactly one address space in this kernel; every process shares
// it. The mappings Init installs are identity mappings, so kernel addresses
// mean the same thing whether paging is off or on; Map and MapPage can
// replace individual RAM pages with non-identity mappings, which is how
// per-process user heap pages are mapped.
//
// The locking discipline is Lock/Unlock/lockassert around every page-table
// mutation, even though this kernel has only one address space rather
// than one per process: every exported mutator takes the lock, and
// anything that must run already holding it documents that with
// lockassert.
package vmm

import (
	"sync"

	"rvkernel/internal/layout"
	"rvkernel/internal/pmm"
	"rvkernel/internal/riscv"
)

// Map flag bits, the VMM's own vocabulary, translated to Sv39 PTE bits
// inside pteFlagsFrom.
const (
	PRESENT = 0x01
	RW      = 0x02
	USER    = 0x04
)

// pte is one raw Sv39 page-table entry.
type pte uint64

// table is one level of the page table: 512 8-byte entries, exactly one
// physical page.
type table [512]pte

const entriesPerTable = 512

// AddressSpace owns one Sv39 root table. This kernel only ever constructs
// one (Kernel, below), but the type is not a singleton itself so tests can
// build disposable address spaces.
type AddressSpace struct {
	mu        sync.Mutex
	root      uintptr // physical address of the root (level-2) table
	rootSet   bool
	pgfltaken bool
}

// Kernel is the one Sv39 root table this kernel ever activates.
var Kernel AddressSpace

// Lock acquires the address-space lock and marks that table manipulation
// is in progress.
func (as *AddressSpace) Lock() {
	as.mu.Lock()
	as.pgfltaken = true
}

// Unlock releases the address-space lock.
func (as *AddressSpace) Unlock() {
	as.pgfltaken = false
	as.mu.Unlock()
}

// lockassert panics if the caller did not take the lock first.
func (as *AddressSpace) lockassert() {
	if !as.pgfltaken {
		panic("vmm: address space lock must be held")
	}
}

func rootTable(pa uintptr) *table {
	return (*table)(ptrFromBytes(pmm.PageBytes(pa)))
}

// pteFlagsFrom translates the VMM's PRESENT/RW/USER vocabulary into Sv39
// PTE bits: RW maps to R|W|X (code and data pages are not distinguished),
// and every leaf PTE this package installs also carries A|D so hardware
// never needs to manage the accessed/dirty bits itself.
func pteFlagsFrom(flags int) pte {
	var f pte
	if flags&PRESENT != 0 {
		f |= riscv.PTE_V
	}
	if flags&RW != 0 {
		f |= riscv.PTE_R | riscv.PTE_W | riscv.PTE_X
	}
	if flags&USER != 0 {
		f |= riscv.PTE_U
	}
	f |= riscv.PTE_A | riscv.PTE_D
	return f
}

func makePTE(pa uintptr, flags pte) pte {
	ppn := pte(pa >> layout.PageShift)
	return (ppn << riscv.PPNShift) | (flags & riscv.PTEFlagsMask)
}

func pteToPhys(p pte) uintptr {
	ppn := p >> riscv.PPNShift
	return uintptr(ppn) << layout.PageShift
}

func vpn2(va uintptr) uintptr { return (va >> 30) & 0x1FF }
func vpn1(va uintptr) uintptr { return (va >> 21) & 0x1FF }
func vpn0(va uintptr) uintptr { return (va >> 12) & 0x1FF }

// allocTablePage allocates and zeroes one fresh physical page to serve as
// an intermediate page-table level.
func allocTablePage() (uintptr, bool) {
	return pmm.Kernel.Alloc()
}

// nextLevel walks one level of the page table at idx, allocating a fresh
// table on demand when alloc is true. It returns nil if the entry is not
// present and alloc is false, or if an on-demand allocation fails.
func nextLevel(t *table, idx uintptr, alloc bool) *table {
	p := t[idx]
	if p&riscv.PTE_V == 0 {
		if !alloc {
			return nil
		}
		pa, ok := allocTablePage()
		if !ok {
			return nil
		}
		// Intermediate PTEs are non-leaf: only V is set. R/W/X/A/D must
		// stay clear or hardware would treat this as a leaf mapping.
		t[idx] = makePTE(pa, riscv.PTE_V)
		return rootTable(pa)
	}
	return rootTable(pteToPhys(p))
}

// Init allocates and zeroes the root table, then installs identity
// mappings over every region the kernel itself must be able to touch:
// all of RAM, UART, the VirtIO MMIO window, CLINT, and the PLIC window.
// Init must be called exactly once, before Activate and before any Map.
func (as *AddressSpace) Init() {
	as.Lock()
	defer as.Unlock()
	if as.rootSet {
		panic("vmm: Init called twice")
	}
	pa, ok := allocTablePage()
	if !ok {
		panic("vmm: failed to allocate root table")
	}
	as.root = pa
	as.rootSet = true

	as.mapIdentityRangeLocked(layout.RAMBase, layout.RAMBase+layout.RAMSize, RW|USER)
	as.mapIdentityRangeLocked(layout.UARTBase, layout.UARTBase+layout.UARTSize, RW)
	as.mapIdentityRangeLocked(layout.VirtioMMIOBase, layout.VirtioMMIOEnd, RW)
	as.mapIdentityRangeLocked(layout.CLINTBase, layout.CLINTBase+layout.CLINTSize, RW)
	as.mapIdentityRangeLocked(layout.PLICBase, layout.PLICBase+layout.PLICSize, RW)
}

// mapIdentityRangeLocked maps every page in [start, end) to itself. Caller
// must hold as.mu. Individual mapping failures are ignored here: a boot-
// time identity map running out of page-table pages is a configuration
// bug the self-test and later translate calls will surface.
func (as *AddressSpace) mapIdentityRangeLocked(start, end uintptr, flags int) {
	if end <= start {
		return
	}
	aligned := start &^ (layout.PageSize - 1)
	for addr := aligned; addr < end; addr += layout.PageSize {
		as.mapLocked(addr, addr, flags)
	}
}

// Map installs a leaf mapping va -> pa with the given flags. Both
// addresses must be page-aligned. It returns false if the root table is
// unset, either address is misaligned, or an intermediate table
// allocation fails.
func (as *AddressSpace) Map(va, pa uintptr, flags int) bool {
	as.Lock()
	defer as.Unlock()
	return as.mapLocked(va, pa, flags)
}

func (as *AddressSpace) mapLocked(va, pa uintptr, flags int) bool {
	as.lockassert()
	if !as.rootSet {
		return false
	}
	if va%layout.PageSize != 0 || pa%layout.PageSize != 0 {
		return false
	}
	l2 := rootTable(as.root)
	l1 := nextLevel(l2, vpn2(va), true)
	if l1 == nil {
		return false
	}
	l0 := nextLevel(l1, vpn1(va), true)
	if l0 == nil {
		return false
	}
	l0[vpn0(va)] = makePTE(pa, pteFlagsFrom(flags|PRESENT))
	return true
}

// MapPage allocates one zeroed physical page and maps va to it. On mapping
// failure the allocated page is freed. Returns false on failure.
func (as *AddressSpace) MapPage(va uintptr, flags int) bool {
	pa, ok := pmm.Kernel.Alloc()
	if !ok {
		return false
	}
	if !as.Map(va, pa, flags) {
		pmm.Kernel.Free(pa)
		return false
	}
	return true
}

// Unmap clears the leaf mapping for va. If freePhys is true, the mapped
// physical page is returned to the physical allocator. Returns false if
// there is no present mapping for va (or va is misaligned, or the root is
// unset) — no state is changed in that case.
func (as *AddressSpace) Unmap(va uintptr, freePhys bool) bool {
	as.Lock()
	defer as.Unlock()
	if !as.rootSet || va%layout.PageSize != 0 {
		return false
	}
	l2 := rootTable(as.root)
	l1 := nextLevel(l2, vpn2(va), false)
	if l1 == nil {
		return false
	}
	l0 := nextLevel(l1, vpn1(va), false)
	if l0 == nil {
		return false
	}
	p := l0[vpn0(va)]
	if p&riscv.PTE_V == 0 {
		return false
	}
	phys := pteToPhys(p)
	l0[vpn0(va)] = 0
	if freePhys {
		pmm.Kernel.Free(phys)
	}
	// Intermediate page-table pages are never reclaimed here: walking back
	// up and freeing an emptied level-0/level-1 table would need a
	// reference count this package doesn't keep.
	return true
}

// Translate returns the physical address va maps to, and true, or (0,
// false) if there is no present mapping.
func (as *AddressSpace) Translate(va uintptr) (uintptr, bool) {
	as.Lock()
	defer as.Unlock()
	if !as.rootSet {
		return 0, false
	}
	l2 := rootTable(as.root)
	l1 := nextLevel(l2, vpn2(va), false)
	if l1 == nil {
		return 0, false
	}
	l0 := nextLevel(l1, vpn1(va), false)
	if l0 == nil {
		return 0, false
	}
	p := l0[vpn0(va)]
	if p&riscv.PTE_V == 0 {
		return 0, false
	}
	offset := va & (layout.PageSize - 1)
	return pteToPhys(p) | offset, true
}

// RootPhys returns the physical address of the root table, for Activate
// and for tests/diagnostics.
func (as *AddressSpace) RootPhys() uintptr {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.root
}

// Activate writes satp to point at this address space's root table (mode
// Sv39, ASID 0) and fences the TLB.
func (as *AddressSpace) Activate() {
	as.mu.Lock()
	root := as.root
	set := as.rootSet
	as.mu.Unlock()
	if !set {
		panic("vmm: Activate before Init")
	}
	ppn := uint64(root >> layout.PageShift)
	satp := (uint64(riscv.SatpModeSv39) << 60) | (ppn & ((1 << 44) - 1))
	riscv.WriteSatp(satp)
	riscv.SfenceVMA()
}

// DumpVA logs the PTE at each of the three levels walked for va through
// log, a debugging aid for tracking down a missing or unexpected mapping.
func (as *AddressSpace) DumpVA(log func(format string, args ...any), va uintptr) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if !as.rootSet {
		return
	}
	log("dump for VA=%#x (vpn2=%d vpn1=%d vpn0=%d)", va, vpn2(va), vpn1(va), vpn0(va))
	l2 := rootTable(as.root)
	p2 := l2[vpn2(va)]
	log("L2 pte=%#x", uint64(p2))
	if p2&riscv.PTE_V == 0 {
		log("L2 not present")
		return
	}
	l1 := rootTable(pteToPhys(p2))
	p1 := l1[vpn1(va)]
	log("L1 pte=%#x", uint64(p1))
	if p1&riscv.PTE_V == 0 {
		log("L1 not present")
		return
	}
	l0 := rootTable(pteToPhys(p1))
	p0 := l0[vpn0(va)]
	log("L0 pte=%#x", uint64(p0))
}

// SelfTest exercises map/translate/unmap once and reports whether every
// step behaved as expected — a quick end-to-end sanity check the boot
// sequence runs right after Init, before Activate. It does not touch RAM outside one
// freshly allocated page.
func (as *AddressSpace) SelfTest() error {
	const testVA = layout.HeapUserBase
	phys, ok := pmm.Kernel.Alloc()
	if !ok {
		return errSelfTest("kalloc failed")
	}
	if !as.Map(testVA, phys, RW|USER) {
		pmm.Kernel.Free(phys)
		return errSelfTest("map failed")
	}
	got, ok := as.Translate(testVA)
	if !ok || got != phys {
		return errSelfTest("translate did not return the mapped page")
	}
	if !as.Unmap(testVA, true) {
		return errSelfTest("unmap failed")
	}
	if _, ok := as.Translate(testVA); ok {
		return errSelfTest("translate succeeded after unmap")
	}
	return nil
}

type selfTestError string

func (e selfTestError) Error() string { return "vmm self-test: " + string(e) }

func errSelfTest(msg string) error { return selfTestError(msg) }
