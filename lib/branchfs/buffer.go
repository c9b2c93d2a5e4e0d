// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"fmt"
	"sync"
)

// openFile is the transient state for one open path: a mutable byte
// buffer and the number of balanced open/release pairs outstanding.
type openFile struct {
	buffer   []byte
	refcount int
}

// BufferManager tracks the in-memory buffers for files that are open
// for read or write, keyed by path. All map and refcount mutations are
// serialized by an internal mutex; there is no ambient global state.
//
// The manager never touches the object store. Loading a blob into a
// buffer and persisting a buffer back are the Session's job — the
// manager only owns the open-session bookkeeping.
type BufferManager struct {
	mu   sync.Mutex
	open map[string]*openFile
}

// NewBufferManager returns an empty BufferManager.
func NewBufferManager() *BufferManager {
	return &BufferManager{open: make(map[string]*openFile)}
}

// OpenExisting registers an open of path with the given stored
// content. The content is loaded into a fresh buffer (replacing any
// buffered state from earlier opens of the same path) and the
// refcount is incremented, starting at one for the first open.
func (m *BufferManager) OpenExisting(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buffer := make([]byte, len(content))
	copy(buffer, content)

	if file, exists := m.open[path]; exists {
		file.buffer = buffer
		file.refcount++
		return
	}
	m.open[path] = &openFile{buffer: buffer, refcount: 1}
}

// CreateNew registers an open of path with an empty buffer, for files
// that do not exist in the store yet.
func (m *BufferManager) CreateNew(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if file, exists := m.open[path]; exists {
		file.refcount++
		return
	}
	m.open[path] = &openFile{refcount: 1}
}

// ReadAt returns up to size bytes of path's buffer starting at offset.
// Reading past the end of the buffer returns fewer bytes (or none),
// matching ordinary file read semantics. Reading a path that is not
// open reports ErrResourceBusy.
func (m *BufferManager) ReadAt(path string, size int, offset int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, exists := m.open[path]
	if !exists {
		return nil, fmt.Errorf("read %s: no open buffer: %w", path, ErrResourceBusy)
	}

	if offset >= int64(len(file.buffer)) || offset < 0 {
		return nil, nil
	}
	end := offset + int64(size)
	if end > int64(len(file.buffer)) {
		end = int64(len(file.buffer))
	}

	out := make([]byte, end-offset)
	copy(out, file.buffer[offset:end])
	return out, nil
}

// WriteAt splices data into path's buffer at offset, growing the
// buffer when the write extends past its current length. Writing to a
// path that is not open reports ErrResourceBusy.
func (m *BufferManager) WriteAt(path string, data []byte, offset int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, exists := m.open[path]
	if !exists {
		return 0, fmt.Errorf("write %s: no open buffer: %w", path, ErrResourceBusy)
	}
	if offset < 0 {
		return 0, fmt.Errorf("write %s: negative offset: %w", path, ErrInvalidArgument)
	}

	end := offset + int64(len(data))
	if end > int64(len(file.buffer)) {
		grown := make([]byte, end)
		copy(grown, file.buffer)
		file.buffer = grown
	}
	copy(file.buffer[offset:], data)
	return len(data), nil
}

// Release balances one open of path. On the release that brings the
// refcount to zero the buffer is discarded and its final content
// returned with last=true, so the caller can persist it if configured
// to. Releasing a path that is not open reports ErrResourceBusy — the
// refcount never goes negative.
func (m *BufferManager) Release(path string) (content []byte, last bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, exists := m.open[path]
	if !exists {
		return nil, false, fmt.Errorf("release %s: no open buffer: %w", path, ErrResourceBusy)
	}

	file.refcount--
	if file.refcount > 0 {
		return nil, false, nil
	}

	delete(m.open, path)
	return file.buffer, true, nil
}

// BufferSize reports the buffered length for path and whether the path
// is currently open.
func (m *BufferManager) BufferSize(path string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, exists := m.open[path]
	if !exists {
		return 0, false
	}
	return len(file.buffer), true
}
