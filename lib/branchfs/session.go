// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gitmount/gitmount/lib/clock"
	"github.com/gitmount/gitmount/lib/object"
)

// Options configures a Session.
type Options struct {
	// Store is the object store backing the mounted branch.
	Store *object.Store

	// Branch is the branch whose head the session resolves against
	// and advances. The branch must exist before the session starts.
	Branch string

	// Author is the identity stamped on commits the session creates.
	// Zero value defaults to a fixed placeholder identity.
	Author object.Signature

	// Clock supplies commit timestamps. If nil, the real clock is used.
	Clock clock.Clock

	// PersistOnRelease controls what happens to buffered writes when
	// the last open of a path is released. False reproduces the
	// historical behavior: the buffer is discarded and writes are
	// visible only within the open session. True writes the final
	// buffer as a blob and commits the rewritten tree chain.
	PersistOnRelease bool

	// Logger receives diagnostic messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Attr is the metadata the attribute-lookup operation reports: the
// entry's stored mode and the object size (blob content length, or a
// fixed nominal size for trees). The adapter layer fills in the fixed
// device, inode, ownership, and timestamp fields.
type Attr struct {
	Mode object.Mode
	Size int64
}

// DirEntry is one name in a directory listing.
type DirEntry struct {
	Name string
	Mode object.Mode
}

// treeNominalSize is the size reported for directories, which have no
// meaningful byte length.
const treeNominalSize = 4096

// Session is the operation dispatcher: the path-keyed filesystem
// operations, composed from the Resolver, Rewriter, Committer, and
// BufferManager. One Session serves one mounted branch.
//
// Handlers may be invoked concurrently. writeMu serializes every
// resolve-rewrite-commit sequence so concurrent mutations cannot both
// read the same head and lose one update; the BufferManager guards its
// own map internally.
type Session struct {
	resolver  *Resolver
	rewriter  *Rewriter
	committer *Committer
	buffers   *BufferManager

	store   *object.Store
	branch  string
	clock   clock.Clock
	persist bool
	logger  *slog.Logger

	writeMu sync.Mutex
}

// NewSession validates options and returns a Session. The branch ref
// must already resolve: mounting a branch that does not exist is a
// hard failure, not an invitation to create it.
func NewSession(options Options) (*Session, error) {
	if options.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := object.ValidateBranch(options.Branch); err != nil {
		return nil, err
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if options.Author == (object.Signature{}) {
		options.Author = object.Signature{Name: "gitmount", Email: "gitmount@localhost"}
	}

	_, exists, err := options.Store.ResolveRef(options.Branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("branch %s: %w", options.Branch, ErrNotFound)
	}

	resolver := NewResolver(options.Store, options.Branch)
	return &Session{
		resolver:  resolver,
		rewriter:  NewRewriter(options.Store, resolver),
		committer: NewCommitter(options.Store, options.Branch, options.Author, options.Clock),
		buffers:   NewBufferManager(),
		store:     options.Store,
		branch:    options.Branch,
		clock:     options.Clock,
		persist:   options.PersistOnRelease,
		logger:    options.Logger,
	}, nil
}

// Branch returns the branch this session is bound to.
func (s *Session) Branch() string { return s.branch }

// Clock returns the session's clock, for adapter layers that stamp
// attribute times.
func (s *Session) Clock() clock.Clock { return s.clock }

// Resolve exposes path resolution to adapter layers.
func (s *Session) Resolve(path string) (*ResolvedPath, error) {
	return s.resolver.Resolve(path)
}

// BufferSize reports the buffered length for a path that is open but
// possibly not yet committed, and whether such a buffer exists.
func (s *Session) BufferSize(path string) (int, bool) {
	return s.buffers.BufferSize(path)
}

// Stat resolves path and reports its stored mode and size.
func (s *Session) Stat(path string) (Attr, error) {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return Attr{}, err
	}
	if resolved.Entry.Mode.IsDir() {
		return Attr{Mode: resolved.Entry.Mode, Size: treeNominalSize}, nil
	}

	content, err := s.store.ReadBlob(resolved.Entry.Target)
	if err != nil {
		return Attr{}, fmt.Errorf("stat %s: %w", path, ErrNotFound)
	}
	return Attr{Mode: resolved.Entry.Mode, Size: int64(len(content))}, nil
}

// List resolves path as a directory and returns its listing: ".",
// "..", then every child of the resolved tree in stored order.
func (s *Session) List(path string) ([]DirEntry, error) {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if !resolved.Entry.Mode.IsDir() {
		return nil, fmt.Errorf("listing %s: %w", path, ErrNotADirectory)
	}

	tree, err := s.store.ReadTree(resolved.Entry.Target)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, ErrNotFound)
	}

	entries := []DirEntry{
		{Name: ".", Mode: object.ModeDir},
		{Name: "..", Mode: object.ModeDir},
	}
	for _, child := range tree.Entries {
		entries = append(entries, DirEntry{Name: child.Name, Mode: child.Mode})
	}
	return entries, nil
}

// ReadLink resolves path and returns its blob content as a link
// target. Entries that are not symlinks report ErrInvalidArgument.
func (s *Session) ReadLink(path string) ([]byte, error) {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if !resolved.Entry.Mode.IsSymlink() {
		return nil, fmt.Errorf("readlink %s: %w", path, ErrInvalidArgument)
	}

	target, err := s.store.ReadBlob(resolved.Entry.Target)
	if err != nil {
		return nil, fmt.Errorf("readlink %s: %w", path, ErrNotFound)
	}
	return target, nil
}

// Create registers a new regular file at path as an open, empty
// buffer. The parent directory must resolve and be a directory.
// Nothing is committed: the file reaches the object graph only when a
// persist-on-release flush (if enabled) writes it.
func (s *Session) Create(path string) error {
	parent, leaf := ParentPath(path)
	if leaf == "" || leaf == "." || leaf == ".." {
		return fmt.Errorf("create %s: %w", path, ErrInvalidArgument)
	}

	resolved, err := s.resolver.Resolve(parent)
	if err != nil {
		return err
	}
	if !resolved.Entry.Mode.IsDir() {
		return fmt.Errorf("create %s: parent: %w", path, ErrNotADirectory)
	}

	s.buffers.CreateNew(path)
	s.logger.Debug("file created", "path", path)
	return nil
}

// Mkdir writes an empty tree, splices it into the ancestor chain at
// path, and commits the new root. The whole sequence runs under the
// session write mutex so a concurrent mutation cannot slip between
// head resolution and the ref advance.
func (s *Session) Mkdir(path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	emptyTree, err := s.store.WriteTree(&object.Tree{})
	if err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	newRoot, err := s.rewriter.Rewrite(path, object.ModeDir, emptyTree)
	if err != nil {
		return err
	}

	commitDigest, err := s.committer.Commit(newRoot, "mkdir "+path)
	if err != nil {
		return err
	}
	s.logger.Info("directory committed",
		"path", path,
		"commit", object.FormatDigest(commitDigest),
	)
	return nil
}

// Open resolves path as a blob and loads its content into an open
// buffer. Directories report ErrIsADirectory; entries that are
// neither trees nor readable blobs report ErrInvalidArgument.
func (s *Session) Open(path string) error {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if resolved.Entry.Mode.IsDir() {
		return fmt.Errorf("open %s: %w", path, ErrIsADirectory)
	}

	content, err := s.store.ReadBlob(resolved.Entry.Target)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, ErrInvalidArgument)
	}

	s.buffers.OpenExisting(path, content)
	return nil
}

// ReadAt reads from the open buffer for path.
func (s *Session) ReadAt(path string, size int, offset int64) ([]byte, error) {
	return s.buffers.ReadAt(path, size, offset)
}

// WriteAt writes into the open buffer for path.
func (s *Session) WriteAt(path string, data []byte, offset int64) (int, error) {
	return s.buffers.WriteAt(path, data, offset)
}

// Release balances one open of path. When the last open is released
// the buffer is discarded — or, with persist-on-release enabled,
// written back as a blob and committed before being discarded.
//
// Resolution is attempted first to re-derive the entry's stored mode,
// but a path that resolves to nothing is still releasable when a
// buffer exists: files registered by Create live only in the buffer
// map until a flush commits them.
func (s *Session) Release(path string) error {
	mode := object.ModeFile
	resolved, err := s.resolver.Resolve(path)
	switch {
	case err == nil:
		if resolved.Entry.Mode.IsDir() {
			return fmt.Errorf("release %s: %w", path, ErrIsADirectory)
		}
		mode = resolved.Entry.Mode
	case errors.Is(err, ErrNotFound):
		// Created but never committed; the buffer is the only state.
	default:
		return err
	}

	content, last, err := s.buffers.Release(path)
	if err != nil {
		return err
	}
	if !last || !s.persist {
		return nil
	}

	return s.flush(path, mode, content)
}

// flush persists a released buffer: blob write, tree chain rewrite,
// commit, ref advance, all under the session write mutex.
func (s *Session) flush(path string, mode object.Mode, content []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	blobDigest, err := s.store.WriteBlob(content)
	if err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	newRoot, err := s.rewriter.Rewrite(path, mode, blobDigest)
	if err != nil {
		return err
	}

	commitDigest, err := s.committer.Commit(newRoot, "write "+path)
	if err != nil {
		return err
	}
	s.logger.Info("buffer flushed",
		"path", path,
		"bytes", len(content),
		"commit", object.FormatDigest(commitDigest),
	)
	return nil
}
