// Package virtio implements the VirtIO-MMIO block device driver this
// kernel's filesystem sits on. The real VirtIO queue negotiation and DMA
// descriptor ring are out of scope for a single-disk teaching kernel; this
// package implements just the interface the rest of the kernel needs —
// Start/Intr — against an in-memory backing store rather than a real
// descriptor ring, so fs and its tests don't need an actual block device
// to run against.
//
// Start/Intr split submission from completion the way a real MMIO block
// driver must: Start enqueues a request and returns immediately, and
// Intr is where a
// completed request's result is handed back, mirroring an interrupt
// firing once the hardware ring entry is done.
package virtio

import "sync"

// BlockSize is the fixed block size every read/write request transfers.
const BlockSize = 4096

// Cmd enumerates the two request kinds this driver services.
type Cmd int

const (
	Read Cmd = iota
	Write
)

// Req is one outstanding block request. AckCh is closed when the request
// completes; callers that need the result synchronously just read from it.
type Req struct {
	Cmd   Cmd
	Block int
	Data  *[BlockSize]byte
	AckCh chan struct{}
}

// Disk is the interface the trap dispatcher and internal/fs consume:
// submit a request (Start) and service a completion interrupt (Intr).
type Disk interface {
	Start(*Req) bool
	Intr()
}

// MemDisk is an in-memory VirtIO block device: requests are queued by
// Start and actually performed by Intr, mirroring the real device's
// submit-then-interrupt shape without a real descriptor ring or DMA
// engine.
type MemDisk struct {
	mu      sync.Mutex
	backing []byte
	pending []*Req
}

// Kernel is the one block device this kernel's filesystem talks to.
var Kernel MemDisk

// Init sizes the backing store to hold nblocks blocks of BlockSize bytes
// each, all zeroed.
func (d *MemDisk) Init(nblocks int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backing = make([]byte, nblocks*BlockSize)
	d.pending = nil
}

// LoadImage copies img into the backing store starting at block 0,
// truncating or zero-padding to the device's configured size. Used by
// boot/test setup to preload a romfs image built by cmd/mkromfs.
func (d *MemDisk) LoadImage(img []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := copy(d.backing, img)
	for i := n; i < len(d.backing); i++ {
		d.backing[i] = 0
	}
}

// Start queues req and returns true, meaning the caller must wait on
// req.AckCh for completion (false would mean the request was already
// satisfied synchronously, which this driver never does).
func (d *MemDisk) Start(req *Req) bool {
	d.mu.Lock()
	d.pending = append(d.pending, req)
	d.mu.Unlock()
	return true
}

// Intr services every queued request: performs the actual byte copy to or
// from the backing store and signals AckCh. Called by the trap dispatcher
// when plic.Claim() returns an IRQ in [plic.VirtioIRQMin, plic.VirtioIRQMax].
func (d *MemDisk) Intr() {
	d.mu.Lock()
	reqs := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, req := range reqs {
		off := req.Block * BlockSize
		switch req.Cmd {
		case Read:
			copy(req.Data[:], d.backing[off:off+BlockSize])
		case Write:
			copy(d.backing[off:off+BlockSize], req.Data[:])
		}
		close(req.AckCh)
	}
}

// ReadBlock is a synchronous convenience wrapper around Start+Intr for
// callers (internal/fs, tests) that don't need to straddle an interrupt:
// it submits the request and immediately drains the queue itself, the way
// a single-hart kernel with interrupts enabled would see the completion
// interrupt almost immediately after submission.
func ReadBlock(d Disk, block int) *[BlockSize]byte {
	req := &Req{Cmd: Read, Block: block, Data: &[BlockSize]byte{}, AckCh: make(chan struct{})}
	if d.Start(req) {
		d.Intr()
		<-req.AckCh
	}
	return req.Data
}

// WriteBlock is ReadBlock's write-side counterpart.
func WriteBlock(d Disk, block int, data *[BlockSize]byte) {
	req := &Req{Cmd: Write, Block: block, Data: data, AckCh: make(chan struct{})}
	if d.Start(req) {
		d.Intr()
		<-req.AckCh
	}
}
