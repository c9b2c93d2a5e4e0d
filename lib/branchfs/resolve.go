// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"fmt"
	"strings"

	"github.com/gitmount/gitmount/lib/object"
)

// ResolvedPath is the outcome of walking a path from the branch head.
// Entry is the resolved leaf; Ancestors is the chain of enclosing
// directory entries, root first, innermost parent last. The root is a
// synthesized entry (empty name, directory mode) pointing at the head
// commit's tree. Len(Ancestors) equals the number of path segments
// consumed on the way to the leaf.
type ResolvedPath struct {
	Entry     object.Entry
	Ancestors []object.Entry
}

// Resolver walks paths against the current head of one branch. It
// holds no state between calls: every Resolve re-reads the branch ref,
// so resolution always sees the latest commit.
type Resolver struct {
	store  *object.Store
	branch string
}

// NewResolver returns a Resolver for the given store and branch.
func NewResolver(store *object.Store, branch string) *Resolver {
	return &Resolver{store: store, branch: branch}
}

// Resolve walks path from the branch head's root tree and returns the
// resolved entry with its ancestor chain. A missing ref, a missing
// intermediate, and a missing leaf all report ErrNotFound; descending
// through a non-tree reports ErrNotADirectory.
func (r *Resolver) Resolve(path string) (*ResolvedPath, error) {
	entry, ancestors, err := r.walk(path)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("resolving %s: %w", path, ErrNotFound)
	}
	return &ResolvedPath{Entry: *entry, Ancestors: ancestors}, nil
}

// walk is the shared resolution loop. It differs from Resolve in one
// way: when every ancestor exists but the final segment has no entry,
// it returns a nil entry with the complete ancestor chain instead of
// failing. The Rewriter depends on that partial result to insert new
// leaves; Resolve turns it into ErrNotFound.
func (r *Resolver) walk(path string) (*object.Entry, []object.Entry, error) {
	head, exists, err := r.store.ResolveRef(r.branch)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, fmt.Errorf("branch %s: %w", r.branch, ErrNotFound)
	}
	commit, err := r.store.ReadCommit(head)
	if err != nil {
		return nil, nil, fmt.Errorf("reading head of %s: %w", r.branch, err)
	}

	current := object.Entry{Mode: object.ModeDir, Target: commit.Tree}
	var ancestors []object.Entry

	segments := SplitPath(path)
	for i, segment := range segments {
		switch segment {
		case ".":
			// Stay on the current entry.
		case "..":
			// Pop back to the parent. Popping past the root has no
			// parent to move to and must fail, not silently stay.
			if len(ancestors) == 0 {
				return nil, nil, fmt.Errorf("resolving %s: no parent above the root: %w", path, ErrNotFound)
			}
			current = ancestors[len(ancestors)-1]
			ancestors = ancestors[:len(ancestors)-1]
		default:
			if !current.Mode.IsDir() {
				return nil, nil, fmt.Errorf("resolving %s: %s: %w", path, current.Name, ErrNotADirectory)
			}
			tree, err := r.store.ReadTree(current.Target)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving %s: %w", path, ErrNotFound)
			}
			ancestors = append(ancestors, current)

			child, found := tree.Find(segment)
			if !found {
				if i == len(segments)-1 {
					// All ancestors exist; only the leaf is absent.
					return nil, ancestors, nil
				}
				return nil, nil, fmt.Errorf("resolving %s: no entry %q: %w", path, segment, ErrNotFound)
			}
			current = child
		}
	}

	return &current, ancestors, nil
}

// SplitPath breaks a slash-separated path into its segments,
// discarding empty segments so that "/", "", "/a//b", and "a/b/" all
// normalize the way a filesystem expects.
func SplitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// ParentPath returns the path of the directory containing path, and
// the final segment. The parent of a top-level name is "/".
func ParentPath(path string) (parent, leaf string) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return "/", ""
	}
	return "/" + strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1]
}
