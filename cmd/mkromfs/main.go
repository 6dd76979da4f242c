// Command mkromfs builds the flat name -> entry-point program table image
// internal/fs reads at boot, packing one record per ELF binary found in a
// host directory.
//
// Grounded on mkfs/mkfs.go's host-tool shape (argument-count usage check,
// walking a host directory to populate an image, fmt.Printf progress
// messages) narrowed from a full on-disk filesystem image (bootloader +
// kernel + skeleton directory tree) to this kernel's much smaller need: a
// header block plus fixed-size (name, entrypoint) records, reading each
// program's ELF entry point the same way cmd/chentry reads and rewrites
// one.
package main

import (
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"

	"rvkernel/internal/fs"
)

func usage(me string) {
	fmt.Printf("%s <output-image> <program-dir>\n\nPack every ELF binary in <program-dir> into a romfs image keyed by filename.\n", me)
	os.Exit(1)
}

func main() {
	if len(os.Args) != 3 {
		usage(os.Args[0])
	}
	outPath := os.Args[1]
	progDir := os.Args[2]

	entries, err := collectEntries(progDir)
	if err != nil {
		fmt.Printf("mkromfs: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Printf("mkromfs: no programs found under %q\n", progDir)
	}

	img := fs.BuildImage(entries)
	if err := os.WriteFile(outPath, img, 0o644); err != nil {
		fmt.Printf("mkromfs: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("mkromfs: wrote %d entries (%d bytes) to %s\n", len(entries), len(img), outPath)
}

// collectEntries reads every regular file directly under dir, opens it as
// an ELF binary, and records its entry point under its base filename.
func collectEntries(dir string) (map[string]uint64, error) {
	entries := make(map[string]uint64)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, d := range ents {
		if d.IsDir() {
			continue
		}
		path := filepath.Join(dir, d.Name())
		entry, err := readEntryPoint(path)
		if err != nil {
			fmt.Printf("mkromfs: skipping %q: %v\n", path, err)
			continue
		}
		entries[d.Name()] = entry
	}
	return entries, nil
}

func readEntryPoint(path string) (uint64, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if f.Machine != elf.EM_RISCV {
		return 0, fmt.Errorf("not a riscv elf (machine=%v)", f.Machine)
	}
	return f.Entry, nil
}
