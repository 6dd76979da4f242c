package fs

import "encoding/binary"

// fieldr/fieldw read and write one 8-byte little-endian field within a
// raw block, indexed by field number — the same fixed-width integer
// field packing fs/super.go's Superblock_t uses for its on-disk header
// (Loglen/Imaplen/Freeblock/... each occupying one field slot), applied
// here to the program table's header block instead of a filesystem
// superblock.
func fieldr(b []byte, field int) uint64 {
	return binary.LittleEndian.Uint64(b[field*8 : field*8+8])
}

func fieldw(b []byte, field int, v uint64) {
	binary.LittleEndian.PutUint64(b[field*8:field*8+8], v)
}

// nameField is the number of bytes reserved for a program name within one
// on-disk record, matching internal/pname's MaxLen+1 (19 usable bytes plus
// NUL) — the same fixed-width name discipline the PCB itself uses, since a
// romfs entry's name and a process's name are the same identifier.
const nameField = 20

// recordSize is one packed (name, entrypoint) record: a fixed name field
// plus one 8-byte field for the entry point address, the on-disk
// counterpart of stat/stat.go's Stat_t — a handful of fixed fields read
// and written with no variable-length encoding at all.
const recordSize = nameField + 8

func encodeRecord(name string, entry uint64, out []byte) {
	for i := range out[:nameField] {
		out[i] = 0
	}
	copy(out[:nameField], name)
	binary.LittleEndian.PutUint64(out[nameField:nameField+8], entry)
}

func decodeRecord(b []byte) (name string, entry uint64) {
	n := nameField
	for i, c := range b[:nameField] {
		if c == 0 {
			n = i
			break
		}
	}
	name = string(b[:n])
	entry = binary.LittleEndian.Uint64(b[nameField : nameField+8])
	return name, entry
}
