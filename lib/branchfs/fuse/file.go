// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"syscall"

	"github.com/gitmount/gitmount/lib/branchfs"
	"github.com/gitmount/gitmount/lib/object"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// fileNode represents one file or symlink path.
type fileNode struct {
	gofuse.Inode
	options *Options
	path    string
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)
var _ gofuse.NodeReadlinker = (*fileNode)(nil)

func (f *fileNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := f.options.Session.Stat(f.path)
	if err != nil {
		// Created but not yet committed: the open buffer is the file.
		size, open := f.options.Session.BufferSize(f.path)
		if !open {
			return errnoFor(err)
		}
		attr = branchfs.Attr{Mode: object.ModeFile, Size: int64(size)}
	}
	fillAttr(&out.Attr, attr, f.options.Session.Clock().Now())
	return 0
}

func (f *fileNode) Open(_ context.Context, _ uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if err := f.options.Session.Open(f.path); err != nil {
		return nil, 0, errnoFor(err)
	}
	// Direct I/O for the same reason as Create: reads must come from
	// the live buffer, not a page cache snapshot.
	return &fileHandle{options: f.options, path: f.path}, fuse.FOPEN_DIRECT_IO, 0
}

func (f *fileNode) Readlink(_ context.Context) ([]byte, syscall.Errno) {
	target, err := f.options.Session.ReadLink(f.path)
	if err != nil {
		return nil, errnoFor(err)
	}
	return target, 0
}

// fileHandle serves read, write, and release for one open of a path.
// All state lives in the session's buffer manager; the handle only
// remembers which path it belongs to, so N handles on the same path
// are N references to one shared buffer.
type fileHandle struct {
	options *Options
	path    string
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileWriter = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (h *fileHandle) Read(_ context.Context, dest []byte, offset int64) (fuse.ReadResult, syscall.Errno) {
	data, err := h.options.Session.ReadAt(h.path, len(dest), offset)
	if err != nil {
		return nil, errnoFor(err)
	}
	return fuse.ReadResultData(data), 0
}

func (h *fileHandle) Write(_ context.Context, data []byte, offset int64) (uint32, syscall.Errno) {
	written, err := h.options.Session.WriteAt(h.path, data, offset)
	if err != nil {
		return 0, errnoFor(err)
	}
	return uint32(written), 0
}

// Release balances this handle's open. go-fuse calls Release exactly
// once per handle, which keeps the session's refcounts paired with
// opens (Flush can fire multiple times for dup'd descriptors and is
// deliberately not implemented).
func (h *fileHandle) Release(_ context.Context) syscall.Errno {
	if err := h.options.Session.Release(h.path); err != nil {
		h.options.Logger.Error("release failed", "path", h.path, "error", err)
		return errnoFor(err)
	}
	return 0
}
