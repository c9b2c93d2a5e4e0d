// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for gitmount packages.
package testutil

import (
	"testing"
	"time"

	"github.com/gitmount/gitmount/lib/object"
)

// Epoch is the fixed instant test repositories are bootstrapped at.
// Fixed timestamps keep commit digests deterministic across runs.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Author is the fixed identity used for test commits.
var Author = object.Signature{Name: "gitmount test", Email: "test@localhost"}

// TempRepo creates a repository in a test temp directory with the
// given branch pointing at an empty initial commit, and returns the
// store. The directory is removed when the test completes.
func TempRepo(t *testing.T, branch string) *object.Store {
	t.Helper()

	store, err := object.Init(t.TempDir())
	if err != nil {
		t.Fatalf("initializing test repository: %v", err)
	}
	if _, err := store.Bootstrap(branch, Author, Epoch); err != nil {
		t.Fatalf("bootstrapping branch %s: %v", branch, err)
	}
	return store
}

// Head returns the current head digest of a branch, failing the test
// if the ref is absent.
func Head(t *testing.T, store *object.Store, branch string) object.Digest {
	t.Helper()

	head, exists, err := store.ResolveRef(branch)
	if err != nil {
		t.Fatalf("resolving %s: %v", branch, err)
	}
	if !exists {
		t.Fatalf("branch %s does not exist", branch)
	}
	return head
}

// CommitFile writes content as a blob and commits it at path on the
// branch, building any single missing leaf entry through the standard
// rewrite path. The path's parent directories must already exist.
func CommitFile(t *testing.T, store *object.Store, branch, path string, mode object.Mode, content []byte) object.Digest {
	t.Helper()

	blobDigest, err := store.WriteBlob(content)
	if err != nil {
		t.Fatalf("writing blob for %s: %v", path, err)
	}
	return commitEntry(t, store, branch, path, mode, blobDigest)
}

// CommitDir writes an empty tree and commits it at path on the branch.
func CommitDir(t *testing.T, store *object.Store, branch, path string) object.Digest {
	t.Helper()

	treeDigest, err := store.WriteTree(&object.Tree{})
	if err != nil {
		t.Fatalf("writing tree for %s: %v", path, err)
	}
	return commitEntry(t, store, branch, path, object.ModeDir, treeDigest)
}

// commitEntry splices a leaf entry into the branch head's tree chain
// by hand (the packages under test are not used, so fixture bugs and
// implementation bugs stay distinguishable) and advances the ref.
func commitEntry(t *testing.T, store *object.Store, branch, path string, mode object.Mode, target object.Digest) object.Digest {
	t.Helper()

	head := Head(t, store, branch)
	headCommit, err := store.ReadCommit(head)
	if err != nil {
		t.Fatal(err)
	}

	segments := splitSegments(path)
	if len(segments) == 0 {
		t.Fatalf("cannot commit an entry at the root path %q", path)
	}

	// Walk down collecting the trees along the path.
	trees := []*object.Tree{}
	names := []string{}
	currentDigest := headCommit.Tree
	for _, segment := range segments[:len(segments)-1] {
		tree, err := store.ReadTree(currentDigest)
		if err != nil {
			t.Fatalf("fixture walk at %q: %v", segment, err)
		}
		trees = append(trees, tree)
		names = append(names, segment)

		child, found := tree.Find(segment)
		if !found || !child.Mode.IsDir() {
			t.Fatalf("fixture path %s: missing parent directory %q", path, segment)
		}
		currentDigest = child.Target
	}
	leafTree, err := store.ReadTree(currentDigest)
	if err != nil {
		t.Fatal(err)
	}
	trees = append(trees, leafTree)
	names = append(names, segments[len(segments)-1])

	// Rebuild bottom-up.
	entry := object.Entry{Name: names[len(names)-1], Mode: mode, Target: target}
	for i := len(trees) - 1; i >= 0; i-- {
		rebuilt := replaceOrAppend(trees[i], entry)
		digest, err := store.WriteTree(rebuilt)
		if err != nil {
			t.Fatal(err)
		}
		name := ""
		if i > 0 {
			name = names[i-1]
		}
		entry = object.Entry{Name: name, Mode: object.ModeDir, Target: digest}
	}

	author := Author
	author.When = Epoch
	commitDigest, err := store.WriteCommit(&object.Commit{
		Tree:      entry.Target,
		Parent:    &head,
		Author:    author,
		Committer: author,
		Message:   "fixture: " + path,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateRef(branch, commitDigest); err != nil {
		t.Fatal(err)
	}
	return commitDigest
}

func replaceOrAppend(tree *object.Tree, entry object.Entry) *object.Tree {
	out := &object.Tree{}
	replaced := false
	for _, existing := range tree.Entries {
		if existing.Name == entry.Name {
			out.Entries = append(out.Entries, entry)
			replaced = true
			continue
		}
		out.Entries = append(out.Entries, existing)
	}
	if !replaced {
		out.Entries = append(out.Entries, entry)
	}
	return out
}

func splitSegments(path string) []string {
	var segments []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	return segments
}
