// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"errors"
	"testing"
	"time"

	"github.com/gitmount/gitmount/lib/clock"
	"github.com/gitmount/gitmount/lib/object"
	"github.com/gitmount/gitmount/lib/testutil"
)

func TestCommitChainsOnCurrentHead(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	previousHead := testutil.Head(t, store, "main")

	newRoot, err := store.WriteTree(&object.Tree{Entries: []object.Entry{
		{Name: "file", Mode: object.ModeFile, Target: object.Digest{1}},
	}})
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	committer := NewCommitter(store, "main", testutil.Author, clock.NewFake(when))

	commitDigest, err := committer.Commit(newRoot, "write /file")
	if err != nil {
		t.Fatal(err)
	}

	head := testutil.Head(t, store, "main")
	if head != commitDigest {
		t.Fatal("branch ref does not point at the new commit")
	}

	commit, err := store.ReadCommit(head)
	if err != nil {
		t.Fatal(err)
	}
	if commit.Parent == nil || *commit.Parent != previousHead {
		t.Error("new commit's parent is not the previous head")
	}
	if commit.Tree != newRoot {
		t.Error("new commit does not wrap the new root tree")
	}
	if commit.Message != "write /file" {
		t.Errorf("message = %q", commit.Message)
	}
	if !commit.Author.When.Equal(when) {
		t.Errorf("author time = %v, want %v", commit.Author.When, when)
	}
}

func TestCommitSequenceFormsLinkedHistory(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	committer := NewCommitter(store, "main", testutil.Author, clock.NewFake(testutil.Epoch))

	emptyTree, err := store.WriteTree(&object.Tree{})
	if err != nil {
		t.Fatal(err)
	}

	var heads []object.Digest
	heads = append(heads, testutil.Head(t, store, "main"))
	for i := 0; i < 3; i++ {
		digest, err := committer.Commit(emptyTree, "noop")
		if err != nil {
			t.Fatal(err)
		}
		heads = append(heads, digest)
	}

	// Each commit's parent is the digest committed just before it.
	for i := len(heads) - 1; i > 0; i-- {
		commit, err := store.ReadCommit(heads[i])
		if err != nil {
			t.Fatal(err)
		}
		if commit.Parent == nil || *commit.Parent != heads[i-1] {
			t.Fatalf("commit %d does not chain on its predecessor", i)
		}
	}
}

func TestCommitMissingBranch(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	committer := NewCommitter(store, "ghost", testutil.Author, clock.Real())

	emptyTree, err := store.WriteTree(&object.Tree{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := committer.Commit(emptyTree, "noop"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
