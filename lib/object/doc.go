// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package object implements the content-addressed object store that
// backs a mounted branch: blobs, trees, and commits keyed by SHA-1
// digest, plus the mutable branch refs that name commit heads.
//
// The on-disk layout is git's loose-object format so that a repository
// written by this package can be read by git and vice versa:
//
//   - Objects live under objects/ with a two-character fan-out
//     (objects/ab/cdef...), zlib-deflated, prefixed with the
//     "<type> <length>\0" envelope that also feeds the digest.
//   - Trees encode each entry as the octal mode, a space, the
//     filename, a NUL byte, and the 20 raw digest bytes, concatenated
//     in entry order. An empty tree encodes to zero bytes.
//   - Commits use the git text format: tree and parent headers, author
//     and committer signatures, a blank line, then the message.
//   - Branch refs are files under refs/heads/ holding the hex digest
//     of the head commit.
//
// The digest algorithm is fixed to SHA-1 because the tree encoding is
// load-bearing: it determines every tree's own digest and must match
// what other tools expect when they decode trees written here.
//
// All stored objects are immutable. Writes are atomic (temp file plus
// rename) and writing an object that already exists is a no-op, so
// concurrent writers of identical content are safe by construction.
package object
