// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package branchfs bridges a mutable-filesystem illusion onto the
// immutable object graph of one branch. It is the state machine
// between the FUSE surface and the object store:
//
//   - Resolver walks a slash-separated path from the branch head's
//     root tree to an entry, reporting the ancestor chain.
//   - Rewriter rebuilds the root-to-leaf chain of trees when a leaf
//     entry is added or changed, leaving sibling subtrees referenced
//     unchanged by digest.
//   - Committer wraps a new root tree in a commit and advances the
//     branch ref.
//   - BufferManager holds the in-memory buffers and reference counts
//     for files that are currently open.
//   - Session composes the four into the path-keyed operation set the
//     FUSE adapter (lib/branchfs/fuse) exposes to the kernel.
//
// Nothing here caches resolution results: every operation re-resolves
// from the branch head, so a commit made by one operation is visible
// to the next. A single session-wide mutex serializes each
// resolve-rewrite-commit sequence; without it two concurrent writers
// could read the same head and silently drop one commit.
package branchfs
