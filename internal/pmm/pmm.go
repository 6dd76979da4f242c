// Package pmm is the physical page allocator: a single freelist over the
// kernel's RAM window, handing out and reclaiming 4 KiB naturally-aligned
// pages. Pages carry no reference count: this kernel never shares a
// physical page between two owners at once, so a refcount would only ever
// read 0 or 1. There is likewise no per-CPU free-list cache, since a
// single hart never contends with itself for the freelist lock.
package pmm

import (
	"sync"

	"rvkernel/internal/layout"
)

// pageDesc is the minimal per-page bookkeeping: the index of the next free
// page (meaningful only while free is true), and whether the page is
// currently on the freelist at all.
type pageDesc struct {
	next uint32
	free bool
}

const noNext = ^uint32(0)

// Allocator manages every physical page in [base, base+size).
type Allocator struct {
	mu       sync.Mutex
	base     uintptr
	npages   uint32
	pages    []pageDesc
	freeHead uint32 // index into pages, or noNext if empty
	freeN    uint32
	inited   bool
}

// Kernel is the single system-wide physical allocator, initialized once at
// boot by cmd/rvkernel before any other subsystem runs.
var Kernel Allocator

// Init carves [start, end) into PageSize pages and links them all onto the
// freelist. start and end must both be page-aligned; Init panics otherwise,
// since a misaligned heap range can only come from a boot-sequence bug, not
// a recoverable runtime condition worth threading an error back through
// main() for.
func (a *Allocator) Init(start, end uintptr) {
	if start%layout.PageSize != 0 || end%layout.PageSize != 0 || end <= start {
		panic("pmm: misaligned or empty heap range")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.base = start
	a.npages = uint32((end - start) / layout.PageSize)
	a.pages = make([]pageDesc, a.npages)
	for i := uint32(0); i < a.npages; i++ {
		if i+1 < a.npages {
			a.pages[i].next = i + 1
		} else {
			a.pages[i].next = noNext
		}
		a.pages[i].free = true
	}
	a.freeHead = 0
	a.freeN = a.npages
	a.inited = true
}

// Alloc removes one page from the freelist and returns its physical base
// address. It returns (0, false) once the freelist is exhausted rather
// than panicking, since running out of physical memory is an expected,
// recoverable condition: callers such as fork and process creation are
// expected to unwind and fail gracefully upward instead of taking down
// the kernel.
func (a *Allocator) Alloc() (uintptr, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inited {
		panic("pmm: Alloc before Init")
	}
	if a.freeHead == noNext {
		return 0, false
	}
	idx := a.freeHead
	a.freeHead = a.pages[idx].next
	a.pages[idx].next = 0 // no longer meaningful; page is in-use
	a.pages[idx].free = false
	a.freeN--
	pa := a.base + uintptr(idx)*layout.PageSize
	zeroPage(pa)
	return pa, true
}

// Free returns pa to the freelist. pa must be a page this allocator
// previously handed out via Alloc and must not already be free; a
// double-free is a kernel bug and panics immediately rather than silently
// corrupting the freelist.
func (a *Allocator) Free(pa uintptr) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.indexOf(pa)
	if a.pages[idx].free {
		panic("pmm: double free")
	}
	a.pages[idx].next = a.freeHead
	a.pages[idx].free = true
	a.freeHead = idx
	a.freeN++
}

// indexOf validates and converts a physical address to a page index. Caller
// must hold a.mu.
func (a *Allocator) indexOf(pa uintptr) uint32 {
	if pa < a.base || pa%layout.PageSize != 0 {
		panic("pmm: invalid physical address")
	}
	idx := uint32((pa - a.base) / layout.PageSize)
	if idx >= a.npages {
		panic("pmm: physical address out of range")
	}
	return idx
}

// FreePages returns the number of pages still on the freelist, used by proc_dump
// style diagnostics and tests.
func (a *Allocator) FreePages() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.freeN
}

// TotalPages returns the number of pages this allocator was initialized
// with.
func (a *Allocator) TotalPages() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.npages
}
