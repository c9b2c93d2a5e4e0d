// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"fmt"

	"github.com/gitmount/gitmount/lib/object"
)

// Rewriter rebuilds the chain of trees from a changed leaf up to a new
// root. Everything off the changed path is carried over by digest:
// sibling subtrees are never re-read, let alone rewritten.
type Rewriter struct {
	store    *object.Store
	resolver *Resolver
}

// NewRewriter returns a Rewriter using the given store and resolver.
func NewRewriter(store *object.Store, resolver *Resolver) *Rewriter {
	return &Rewriter{store: store, resolver: resolver}
}

// Rewrite places a new or updated leaf entry (mode plus target digest)
// at path and rebuilds every ancestor tree from the immediate parent
// up to the root, writing each new tree to the store. It returns the
// new root tree's digest, ready for the Committer.
//
// Every intermediate directory along the path must already exist;
// creating inside a missing directory reports ErrStructuralMismatch.
// The caller is expected to have validated the immediate parent
// separately when that distinction matters to it.
func (rw *Rewriter) Rewrite(path string, mode object.Mode, target object.Digest) (object.Digest, error) {
	_, leafName := ParentPath(path)
	if leafName == "" || leafName == "." || leafName == ".." {
		return object.Digest{}, fmt.Errorf("rewriting %s: %w", path, ErrInvalidArgument)
	}

	leaf, ancestors, err := rw.resolver.walk(path)
	if err != nil {
		// Any resolution failure here — missing ref, missing
		// intermediate, non-directory on the path — means there is no
		// complete parent chain to rebuild under.
		return object.Digest{}, fmt.Errorf("rewriting %s: %w", path, ErrStructuralMismatch)
	}
	_ = leaf // May be nil (insert) or set (replace); both take the same path below.

	// Leaf to root: at each level, splice the updated child entry into
	// the ancestor's entry sequence, write the new tree, and wrap it
	// in an entry for the next level up.
	updated := object.Entry{Name: leafName, Mode: mode, Target: target}
	for i := len(ancestors) - 1; i >= 0; i-- {
		tree, err := rw.store.ReadTree(ancestors[i].Target)
		if err != nil {
			return object.Digest{}, fmt.Errorf("rewriting %s: %w", path, err)
		}

		newDigest, err := rw.store.WriteTree(spliceEntry(tree, updated))
		if err != nil {
			return object.Digest{}, fmt.Errorf("rewriting %s: %w", path, err)
		}

		updated = object.Entry{Name: ancestors[i].Name, Mode: object.ModeDir, Target: newDigest}
	}

	return updated.Target, nil
}

// spliceEntry returns a new tree with updated substituted for the
// same-named entry, or appended when no entry has that name. All other
// entries keep their relative positions.
func spliceEntry(tree *object.Tree, updated object.Entry) *object.Tree {
	entries := make([]object.Entry, 0, len(tree.Entries)+1)
	replaced := false
	for _, entry := range tree.Entries {
		if entry.Name == updated.Name {
			entries = append(entries, updated)
			replaced = true
			continue
		}
		entries = append(entries, entry)
	}
	if !replaced {
		entries = append(entries, updated)
	}
	return &object.Tree{Entries: entries}
}
