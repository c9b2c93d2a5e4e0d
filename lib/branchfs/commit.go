// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"fmt"

	"github.com/gitmount/gitmount/lib/clock"
	"github.com/gitmount/gitmount/lib/object"
)

// Committer turns new root trees into commits on one branch. Each
// Commit reads the current head, writes a commit whose parent is that
// head, and advances the ref. The read and the advance are not
// compare-and-swapped against each other; the Session holds its write
// mutex across resolve, rewrite, and commit so that two writers can
// never interleave here.
type Committer struct {
	store  *object.Store
	branch string
	author object.Signature
	clock  clock.Clock
}

// NewCommitter returns a Committer stamping commits with the given
// author identity and clock.
func NewCommitter(store *object.Store, branch string, author object.Signature, clk clock.Clock) *Committer {
	return &Committer{store: store, branch: branch, author: author, clock: clk}
}

// Commit writes a commit wrapping newRoot, parented on the branch's
// current head, and advances the branch ref to it. The branch must
// already exist — there is no silent auto-creation of branches.
func (c *Committer) Commit(newRoot object.Digest, message string) (object.Digest, error) {
	head, exists, err := c.store.ResolveRef(c.branch)
	if err != nil {
		return object.Digest{}, err
	}
	if !exists {
		return object.Digest{}, fmt.Errorf("committing to branch %s: %w", c.branch, ErrNotFound)
	}

	signature := c.author
	signature.When = c.clock.Now()

	commitDigest, err := c.store.WriteCommit(&object.Commit{
		Tree:      newRoot,
		Parent:    &head,
		Author:    signature,
		Committer: signature,
		Message:   message,
	})
	if err != nil {
		return object.Digest{}, fmt.Errorf("committing to branch %s: %w", c.branch, err)
	}

	if err := c.store.UpdateRef(c.branch, commitDigest); err != nil {
		return object.Digest{}, err
	}
	return commitDigest, nil
}
