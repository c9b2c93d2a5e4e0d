// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/gitmount/gitmount/lib/branchfs"
	"github.com/gitmount/gitmount/lib/object"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// errnoFor translates the branchfs error taxonomy into errnos. Every
// expected failure has a precise code; anything unexpected (store I/O
// failures and the like) surfaces as EIO.
func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, branchfs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, branchfs.ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, branchfs.ErrIsADirectory):
		return syscall.EISDIR
	case errors.Is(err, branchfs.ErrInvalidArgument):
		return syscall.EINVAL
	case errors.Is(err, branchfs.ErrResourceBusy):
		return syscall.EBUSY
	case errors.Is(err, branchfs.ErrStructuralMismatch):
		return syscall.ENOENT
	default:
		return syscall.EIO
	}
}

// kernelMode maps a stored tree-entry mode to the kernel's S_IF* form
// with the fixed permission bits this filesystem reports.
func kernelMode(mode object.Mode) uint32 {
	switch {
	case mode.IsDir():
		return syscall.S_IFDIR | 0o755
	case mode.IsSymlink():
		return syscall.S_IFLNK | 0o777
	case mode == object.ModeExecutable:
		return syscall.S_IFREG | 0o755
	default:
		return syscall.S_IFREG | 0o644
	}
}

// fillAttr populates a kernel attr from a session Attr: fixed device
// and inode of zero, zero link count, the calling process's effective
// ownership, the entry's mode and size, the current time for all
// three timestamps, and a fixed block size.
func fillAttr(out *fuse.Attr, attr branchfs.Attr, now time.Time) {
	out.Mode = kernelMode(attr.Mode)
	out.Size = uint64(attr.Size)
	out.Owner = fuse.Owner{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())}
	out.Blksize = 4096
	out.SetTimes(&now, &now, &now)
}
