// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Store is a content-addressed object store rooted at a repository
// directory (for a git repository, its .git directory). Objects are
// write-once; only the refs under refs/heads/ are mutable.
type Store struct {
	root string
}

// Open returns a Store for an existing repository directory. It fails
// if the directory does not have an objects/ subdirectory, which
// catches the common mistake of pointing at a worktree instead of the
// repository itself.
func Open(root string) (*Store, error) {
	info, err := os.Stat(filepath.Join(root, "objects"))
	if err != nil {
		return nil, fmt.Errorf("opening object store at %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening object store at %s: objects is not a directory", root)
	}
	return &Store{root: root}, nil
}

// Init creates the repository layout (objects/ and refs/heads/) at
// root and returns a Store for it. Initializing an existing repository
// is a no-op. Init does not create any branch; see Bootstrap.
func Init(root string) (*Store, error) {
	for _, dir := range []string{
		filepath.Join(root, "objects"),
		filepath.Join(root, "refs", "heads"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("initializing object store: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the repository directory this store reads and writes.
func (s *Store) Root() string {
	return s.root
}

// HashObject computes the digest an object would have when stored:
// SHA-1 over the "<type> <length>\0" envelope followed by the content.
func HashObject(kind Kind, content []byte) Digest {
	hasher := sha1.New()
	fmt.Fprintf(hasher, "%s %d\x00", kind, len(content))
	hasher.Write(content)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// Put writes an object and returns its digest. The object is stored
// zlib-deflated under the two-character fan-out path. Writing content
// that is already present is a no-op — the digest fully determines the
// bytes on disk, so there is nothing to update.
func (s *Store) Put(kind Kind, content []byte) (Digest, error) {
	digest := HashObject(kind, content)

	destination := s.objectPath(digest)
	if _, err := os.Stat(destination); err == nil {
		return digest, nil
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return Digest{}, fmt.Errorf("writing object %s: %w", FormatDigest(digest), err)
	}

	// Write to a temp file in the destination directory and rename
	// into place so readers never observe a partial object.
	temp, err := os.CreateTemp(filepath.Dir(destination), ".tmp-object-*")
	if err != nil {
		return Digest{}, fmt.Errorf("writing object %s: %w", FormatDigest(digest), err)
	}
	tempName := temp.Name()

	deflater := zlib.NewWriter(temp)
	_, writeErr := fmt.Fprintf(deflater, "%s %d\x00", kind, len(content))
	if writeErr == nil {
		_, writeErr = deflater.Write(content)
	}
	if closeErr := deflater.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if closeErr := temp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tempName)
		return Digest{}, fmt.Errorf("writing object %s: %w", FormatDigest(digest), writeErr)
	}

	if err := os.Rename(tempName, destination); err != nil {
		os.Remove(tempName)
		return Digest{}, fmt.Errorf("writing object %s: %w", FormatDigest(digest), err)
	}
	return digest, nil
}

// Get reads an object by digest, returning its kind and content with
// the envelope stripped.
func (s *Store) Get(digest Digest) (Kind, []byte, error) {
	file, err := os.Open(s.objectPath(digest))
	if err != nil {
		return "", nil, fmt.Errorf("reading object %s: %w", FormatDigest(digest), err)
	}
	defer file.Close()

	inflater, err := zlib.NewReader(file)
	if err != nil {
		return "", nil, fmt.Errorf("reading object %s: %w", FormatDigest(digest), err)
	}
	defer inflater.Close()

	raw, err := io.ReadAll(inflater)
	if err != nil {
		return "", nil, fmt.Errorf("reading object %s: %w", FormatDigest(digest), err)
	}

	nulIndex := bytes.IndexByte(raw, 0)
	if nulIndex < 0 {
		return "", nil, fmt.Errorf("reading object %s: envelope is missing its NUL", FormatDigest(digest))
	}
	kindText, lengthText, found := strings.Cut(string(raw[:nulIndex]), " ")
	if !found {
		return "", nil, fmt.Errorf("reading object %s: malformed envelope", FormatDigest(digest))
	}
	length, err := strconv.Atoi(lengthText)
	if err != nil {
		return "", nil, fmt.Errorf("reading object %s: envelope length %q: %w", FormatDigest(digest), lengthText, err)
	}

	content := raw[nulIndex+1:]
	if len(content) != length {
		return "", nil, fmt.Errorf("reading object %s: content is %d bytes, envelope says %d",
			FormatDigest(digest), len(content), length)
	}
	return Kind(kindText), content, nil
}

// WriteBlob stores raw file content and returns its digest.
func (s *Store) WriteBlob(content []byte) (Digest, error) {
	return s.Put(KindBlob, content)
}

// ReadBlob reads a blob's content by digest.
func (s *Store) ReadBlob(digest Digest) ([]byte, error) {
	kind, content, err := s.Get(digest)
	if err != nil {
		return nil, err
	}
	if kind != KindBlob {
		return nil, fmt.Errorf("object %s is a %s, want %s", FormatDigest(digest), kind, KindBlob)
	}
	return content, nil
}

// WriteTree encodes and stores a tree, returning its digest.
func (s *Store) WriteTree(tree *Tree) (Digest, error) {
	return s.Put(KindTree, MarshalTree(tree))
}

// ReadTree reads and decodes a tree by digest.
func (s *Store) ReadTree(digest Digest) (*Tree, error) {
	kind, content, err := s.Get(digest)
	if err != nil {
		return nil, err
	}
	if kind != KindTree {
		return nil, fmt.Errorf("object %s is a %s, want %s", FormatDigest(digest), kind, KindTree)
	}
	return UnmarshalTree(content)
}

// WriteCommit encodes and stores a commit, returning its digest.
func (s *Store) WriteCommit(commit *Commit) (Digest, error) {
	return s.Put(KindCommit, MarshalCommit(commit))
}

// ReadCommit reads and decodes a commit by digest.
func (s *Store) ReadCommit(digest Digest) (*Commit, error) {
	kind, content, err := s.Get(digest)
	if err != nil {
		return nil, err
	}
	if kind != KindCommit {
		return nil, fmt.Errorf("object %s is a %s, want %s", FormatDigest(digest), kind, KindCommit)
	}
	return UnmarshalCommit(content)
}

// objectPath returns the fan-out path for a digest.
func (s *Store) objectPath(digest Digest) string {
	hexDigest := FormatDigest(digest)
	return filepath.Join(s.root, "objects", hexDigest[:2], hexDigest[2:])
}
