// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import "errors"

// The error taxonomy surfaced to the filesystem layer. Every failure
// a caller can provoke maps to exactly one of these kinds; the FUSE
// adapter translates them to errnos. Wrap with fmt.Errorf and %w so
// callers can test with errors.Is while keeping the path or branch in
// the message.
var (
	// ErrNotFound covers every way a path can fail to resolve: a
	// missing ref, a missing intermediate tree, or a missing leaf.
	// The filesystem layer does not need to distinguish them.
	ErrNotFound = errors.New("not found")

	// ErrNotADirectory is returned when a path descends through an
	// entry that is not a tree.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIsADirectory is returned when a file operation targets a tree.
	ErrIsADirectory = errors.New("is a directory")

	// ErrInvalidArgument is returned when an operation is not
	// meaningful for the resolved kind, such as a link read on an
	// entry that is not a symlink.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceBusy is returned for read, write, or release against
	// a path that has no open buffer.
	ErrResourceBusy = errors.New("resource busy")

	// ErrStructuralMismatch is returned when a rewrite targets a path
	// whose parent directory chain does not fully exist.
	ErrStructuralMismatch = errors.New("parent directory chain incomplete")
)
