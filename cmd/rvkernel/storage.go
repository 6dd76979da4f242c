package main

import (
	"rvkernel/internal/fs"
	"rvkernel/internal/klog"
	"rvkernel/internal/virtio"
)

// romfsBlocks is how many virtio.BlockSize blocks the block device
// backing store is sized to hold — blk_init's device-sizing choice,
// picked generously for a teaching kernel's handful of programs.
const romfsBlocks = 64

// initStorage brings up the block device and the program table —
// blk_init followed by fs_init — then registers the built-in shell
// program directly, the way the shell is the one process this kernel
// creates without going through exec. virtio.Kernel.Init gives the device
// a fresh, zeroed backing store and nothing here loads a romfs image into
// it (cmd/mkromfs builds such images offline, for virtio.MemDisk.LoadImage),
// so the table fs.Kernel.Init reads is empty and comes up holding only
// "shell".
func initStorage(shellEntry uintptr) {
	virtio.Kernel.Init(romfsBlocks)
	fs.Kernel.Init(&virtio.Kernel)
	fs.Kernel.Register("shell", uint64(shellEntry))
	klog.Info(logTag, "block device and program table initialized")
}
