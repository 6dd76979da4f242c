// Package fs implements a flat name -> entry-point program table in place
// of real filesystem semantics: one header block (an entry count) followed
// by fixed-size (name, entrypoint) records, read once at boot from the
// VirtIO block device into an in-memory lookup index built on a
// lock-striped bucket pattern (see index.go).
//
// Nested directories, rename, append, and on-disk journaling are all out
// of scope: the only thing the rest of the kernel needs from storage is
// resolving a program name to the address exec should jump to.
package fs

import "rvkernel/internal/virtio"

const headerBlock = 0
const recordsPerBlock = virtio.BlockSize / recordSize

// Table is the in-memory program table, built once from the romfs image
// and consulted by SYS_EXEC.
type Table struct {
	idx *nameIndex
}

// Kernel is the one program table this kernel's boot sequence populates.
var Kernel Table

// Init reads the romfs image off disk (a header block holding the entry
// count, then packed fixed-size records) and builds the in-memory lookup
// index.
func (t *Table) Init(disk virtio.Disk) {
	t.idx = newNameIndex(16)

	header := virtio.ReadBlock(disk, headerBlock)
	count := fieldr(header[:], 0)

	block := headerBlock + 1
	for i := uint64(0); i < count; i++ {
		slot := int(i) % recordsPerBlock
		if slot == 0 && i != 0 {
			block++
		}
		data := virtio.ReadBlock(disk, block)
		off := slot * recordSize
		name, entry := decodeRecord(data[off : off+recordSize])
		t.idx.set(name, entry)
	}
}

// Lookup returns the entry point registered for name, and whether it was
// found, the call exec makes before rewriting the trap frame to jump to
// the new program.
func (t *Table) Lookup(name string) (uint64, bool) {
	if t.idx == nil {
		return 0, false
	}
	return t.idx.get(name)
}

// Register directly adds (or overwrites) a name -> entry-point mapping
// without going through the on-disk image, used by boot code and tests
// that don't want to build a romfs image just to seed a couple of
// programs (e.g. registering the shell's own entrypoint at boot).
func (t *Table) Register(name string, entry uint64) {
	if t.idx == nil {
		t.idx = newNameIndex(16)
	}
	t.idx.set(name, entry)
}

// BuildImage encodes a name->entrypoint map into a romfs block image
// suitable for virtio.MemDisk.LoadImage — the image cmd/mkromfs writes
// (it calls this function), and what tests use to exercise the Init/disk
// path instead of calling Register directly.
func BuildImage(entries map[string]uint64) []byte {
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}

	nblocks := 1 + (len(names)+recordsPerBlock-1)/recordsPerBlock
	if len(names) == 0 {
		nblocks = 1
	}
	img := make([]byte, nblocks*virtio.BlockSize)
	fieldw(img[:virtio.BlockSize], 0, uint64(len(names)))

	for i, name := range names {
		block := 1 + i/recordsPerBlock
		slot := i % recordsPerBlock
		off := block*virtio.BlockSize + slot*recordSize
		encodeRecord(name, entries[name], img[off:off+recordSize])
	}
	return img
}
