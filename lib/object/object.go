// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Digest is a 20-byte SHA-1 content hash. It identifies an object in
// the store and is usable as a map key.
type Digest [20]byte

// FormatDigest returns the 40-character hex form of a digest. This is
// the canonical format used in refs, logs, and commit headers.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 40-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing object digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("object digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// Kind identifies what an object's content encodes.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

// Mode is a POSIX-style file mode as stored in tree entries. Only the
// four values git itself writes are meaningful here.
type Mode uint32

const (
	// ModeDir marks a tree entry that points at another tree.
	ModeDir Mode = 0o040000

	// ModeFile is a regular, non-executable file.
	ModeFile Mode = 0o100644

	// ModeExecutable is a regular file with the execute bit set.
	ModeExecutable Mode = 0o100755

	// ModeSymlink marks a blob whose content is a link target.
	ModeSymlink Mode = 0o120000
)

// IsDir reports whether the mode marks a tree entry.
func (m Mode) IsDir() bool {
	return m == ModeDir
}

// IsSymlink reports whether the mode marks a symbolic link.
func (m Mode) IsSymlink() bool {
	return m == ModeSymlink
}

// Entry is one child of a tree: a filename bound to the digest of the
// blob or subtree it names. Entries are immutable value objects;
// changing a child means building a new Entry and a new parent Tree.
type Entry struct {
	Name   string
	Mode   Mode
	Target Digest
}

// Tree is an ordered sequence of entries — one directory snapshot.
// The order is significant: it feeds the tree's own digest.
type Tree struct {
	Entries []Entry
}

// Find returns the entry with the given name and whether it exists.
// Trees are small enough that a linear scan is the right tool.
func (t *Tree) Find(name string) (Entry, bool) {
	for _, entry := range t.Entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

// Signature names the author or committer of a commit together with
// the time of the action.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit links a root tree to its parent commit plus metadata. Parent
// is nil for a history's initial commit; this design never creates
// merge commits, so a single parent suffices.
type Commit struct {
	Tree      Digest
	Parent    *Digest
	Author    Signature
	Committer Signature
	Message   string
}
