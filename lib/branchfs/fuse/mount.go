// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/gitmount/gitmount/lib/branchfs"
	"github.com/gitmount/gitmount/lib/object"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	// It is created if it does not exist.
	Mountpoint string

	// Session is the branch session serving every operation.
	Session *branchfs.Session

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a no-op logger
	// writing at error level is used.
	Logger *slog.Logger
}

// Mount mounts the branch filesystem at the configured mountpoint.
// The caller must call Unmount on the returned server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &dirNode{options: &options, path: ""}

	// Zero timeouts: the kernel asks again on every access, and every
	// ask re-resolves from the branch head. Nothing is cached between
	// calls, so mutations are visible immediately.
	zero := time.Duration(0)

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &zero,
		AttrTimeout:     &zero,
		NegativeTimeout: &zero,
		MountOptions: fuse.MountOptions{
			FsName:     "gitmount:" + options.Session.Branch(),
			Name:       "gitmount",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("branch filesystem mounted",
		"mountpoint", options.Mountpoint,
		"branch", options.Session.Branch(),
	)
	return server, nil
}

// dirNode represents one directory path. It holds no resolved state;
// each operation re-resolves the path through the session.
type dirNode struct {
	gofuse.Inode
	options *Options
	path    string
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)
var _ gofuse.NodeLookuper = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeMkdirer = (*dirNode)(nil)
var _ gofuse.NodeCreater = (*dirNode)(nil)

func (d *dirNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := d.options.Session.Stat(d.path)
	if err != nil {
		return errnoFor(err)
	}
	fillAttr(&out.Attr, attr, d.options.Session.Clock().Now())
	return 0
}

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := d.path + "/" + name

	attr, err := d.options.Session.Stat(childPath)
	if err != nil {
		// A file created in this session lives only in its buffer
		// until a flush commits it; report it from the buffer so the
		// creating process can see its own file.
		if size, open := d.options.Session.BufferSize(childPath); open {
			attr = branchfs.Attr{Mode: object.ModeFile, Size: int64(size)}
		} else {
			return nil, errnoFor(err)
		}
	}

	fillAttr(&out.Attr, attr, d.options.Session.Clock().Now())
	return d.newChild(ctx, childPath, attr.Mode), 0
}

func (d *dirNode) Readdir(_ context.Context) (gofuse.DirStream, syscall.Errno) {
	listing, err := d.options.Session.List(d.path)
	if err != nil {
		return nil, errnoFor(err)
	}

	entries := make([]fuse.DirEntry, 0, len(listing))
	for _, entry := range listing {
		entries = append(entries, fuse.DirEntry{
			Name: entry.Name,
			Mode: kernelMode(entry.Mode) & syscall.S_IFMT,
		})
	}
	return &sliceDirStream{entries: entries}, 0
}

func (d *dirNode) Mkdir(ctx context.Context, name string, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := d.path + "/" + name

	if err := d.options.Session.Mkdir(childPath); err != nil {
		d.options.Logger.Error("mkdir failed", "path", childPath, "error", err)
		return nil, errnoFor(err)
	}

	attr := branchfs.Attr{Mode: object.ModeDir, Size: 4096}
	fillAttr(&out.Attr, attr, d.options.Session.Clock().Now())
	return d.newChild(ctx, childPath, object.ModeDir), 0
}

func (d *dirNode) Create(ctx context.Context, name string, _ uint32, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	childPath := d.path + "/" + name

	if err := d.options.Session.Create(childPath); err != nil {
		d.options.Logger.Error("create failed", "path", childPath, "error", err)
		return nil, nil, 0, errnoFor(err)
	}

	fillAttr(&out.Attr, branchfs.Attr{Mode: object.ModeFile}, d.options.Session.Clock().Now())
	child := d.newChild(ctx, childPath, object.ModeFile)
	handle := &fileHandle{options: d.options, path: childPath}

	// Direct I/O: the buffer is mutable shared state, so the kernel
	// page cache must not serve reads.
	return child, handle, fuse.FOPEN_DIRECT_IO, 0
}

// newChild builds the inode for a child path with the right embedder
// for its kind.
func (d *dirNode) newChild(ctx context.Context, childPath string, mode object.Mode) *gofuse.Inode {
	if mode.IsDir() {
		return d.NewInode(ctx, &dirNode{options: d.options, path: childPath},
			gofuse.StableAttr{Mode: syscall.S_IFDIR})
	}

	stableMode := uint32(syscall.S_IFREG)
	if mode.IsSymlink() {
		stableMode = syscall.S_IFLNK
	}
	return d.NewInode(ctx, &fileNode{options: d.options, path: childPath},
		gofuse.StableAttr{Mode: stableMode})
}

// sliceDirStream implements fs.DirStream from a slice of entries.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}
