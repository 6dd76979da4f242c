package vmm

import (
	"testing"

	"rvkernel/internal/layout"
	"rvkernel/internal/pmm"
)

func freshSpace(t *testing.T) *AddressSpace {
	t.Helper()
	pmm.Kernel = pmm.Allocator{}
	pmm.Kernel.Init(layout.RAMBase, layout.RAMBase+layout.RAMSize)
	as := &AddressSpace{}
	as.Init()
	return as
}

func TestMapTranslateRoundTrip(t *testing.T) {
	as := freshSpace(t)
	va := uintptr(layout.HeapUserBase)
	pa, ok := pmm.Kernel.Alloc()
	if !ok {
		t.Fatal("alloc failed")
	}
	if !as.Map(va, pa, RW|USER) {
		t.Fatal("map failed")
	}
	got, ok := as.Translate(va)
	if !ok {
		t.Fatal("translate failed after map")
	}
	if got != pa {
		t.Fatalf("translate = %#x, want %#x", got, pa)
	}
}

func TestMapTranslateWithOffset(t *testing.T) {
	as := freshSpace(t)
	va := uintptr(layout.HeapUserBase)
	pa, ok := pmm.Kernel.Alloc()
	if !ok {
		t.Fatal("alloc failed")
	}
	if !as.Map(va, pa, RW|USER) {
		t.Fatal("map failed")
	}
	got, ok := as.Translate(va + 0x10)
	if !ok || got != pa+0x10 {
		t.Fatalf("translate(va+0x10) = %#x,%v, want %#x,true", got, ok, pa+0x10)
	}
}

func TestUnmapThenTranslateFails(t *testing.T) {
	as := freshSpace(t)
	va := uintptr(layout.HeapUserBase)
	pa, _ := pmm.Kernel.Alloc()
	as.Map(va, pa, RW|USER)
	if !as.Unmap(va, true) {
		t.Fatal("unmap failed")
	}
	if _, ok := as.Translate(va); ok {
		t.Fatal("translate succeeded after unmap")
	}
}

func TestUnmapFreesPageForReuse(t *testing.T) {
	as := freshSpace(t)
	va := uintptr(layout.HeapUserBase)
	pa, _ := pmm.Kernel.Alloc()
	as.Map(va, pa, RW|USER)
	before := pmm.Kernel.FreePages()
	as.Unmap(va, true)
	if pmm.Kernel.FreePages() != before+1 {
		t.Fatalf("freed page was not returned to the allocator")
	}
}

func TestRemapAfterUnmap(t *testing.T) {
	as := freshSpace(t)
	va := uintptr(layout.HeapUserBase)
	pa, _ := pmm.Kernel.Alloc()
	as.Map(va, pa, RW|USER)
	as.Unmap(va, true)
	pa2, ok := pmm.Kernel.Alloc()
	if !ok {
		t.Fatal("realloc failed")
	}
	if !as.Map(va, pa2, RW|USER) {
		t.Fatal("remap after unmap failed")
	}
	got, ok := as.Translate(va)
	if !ok || got != pa2 {
		t.Fatal("remap did not take effect")
	}
}

func TestTranslateMissReturnsFalse(t *testing.T) {
	as := freshSpace(t)
	if _, ok := as.Translate(uintptr(layout.RAMBase+layout.RAMSize) + 100*layout.PageSize); ok {
		t.Fatal("expected translate miss for an address never mapped")
	}
}

func TestMapMisalignedFails(t *testing.T) {
	as := freshSpace(t)
	pa, _ := pmm.Kernel.Alloc()
	if as.Map(uintptr(layout.HeapUserBase)+1, pa, RW) {
		t.Fatal("expected Map to reject a misaligned virtual address")
	}
}

func TestSelfTest(t *testing.T) {
	as := freshSpace(t)
	if err := as.SelfTest(); err != nil {
		t.Fatalf("SelfTest failed: %v", err)
	}
}

// TestCrossing2MiBBoundaryMapsIndependently covers a boundary case: a
// VA in the last 4 KiB of a 2 MiB region (one level-1 entry's span) must
// not corrupt the adjacent region's level-0 table, and mapping the first
// page of the next 2 MiB region must succeed as its own independent
// mapping.
func TestCrossing2MiBBoundaryMapsIndependently(t *testing.T) {
	as := freshSpace(t)
	const twoMiB = 1 << 21
	lastPageOfRegion := uintptr(layout.HeapUserBase)&^(twoMiB-1) + twoMiB - layout.PageSize
	firstPageOfNextRegion := lastPageOfRegion + layout.PageSize

	pa1, _ := pmm.Kernel.Alloc()
	if !as.Map(lastPageOfRegion, pa1, RW|USER) {
		t.Fatal("map of last page in 2MiB region failed")
	}
	pa2, _ := pmm.Kernel.Alloc()
	if !as.Map(firstPageOfNextRegion, pa2, RW|USER) {
		t.Fatal("map of first page in next 2MiB region failed")
	}

	got1, ok := as.Translate(lastPageOfRegion)
	if !ok || got1 != pa1 {
		t.Fatal("first region's mapping was disturbed by the second map")
	}
	got2, ok := as.Translate(firstPageOfNextRegion)
	if !ok || got2 != pa2 {
		t.Fatal("second region's mapping did not take")
	}
}

func TestIdentityMapCoversUART(t *testing.T) {
	as := freshSpace(t)
	got, ok := as.Translate(uintptr(layout.UARTBase))
	if !ok || got != uintptr(layout.UARTBase) {
		t.Fatalf("UART identity map: got %#x,%v, want %#x,true", got, ok, layout.UARTBase)
	}
}
