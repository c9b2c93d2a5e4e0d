// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse exposes a branchfs session as a mounted filesystem via
// go-fuse. Nodes hold nothing but their path: every kernel call goes
// back through the session, which re-resolves against the branch head,
// so the mount always reflects the latest commit without any path
// cache to invalidate. Entry, attribute, and negative timeouts are all
// zero for the same reason.
//
// Only the operations the session defines are implemented on the node
// types. Everything else (unlink, rename, chmod, truncate, xattrs)
// falls through to go-fuse's default ENOSYS response.
package fuse
