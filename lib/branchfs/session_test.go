// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package branchfs

import (
	"errors"
	"testing"

	"github.com/gitmount/gitmount/lib/clock"
	"github.com/gitmount/gitmount/lib/object"
	"github.com/gitmount/gitmount/lib/testutil"
)

func newTestSession(t *testing.T, store *object.Store, persist bool) *Session {
	t.Helper()
	session, err := NewSession(Options{
		Store:            store,
		Branch:           "main",
		Author:           testutil.Author,
		Clock:            clock.NewFake(testutil.Epoch),
		PersistOnRelease: persist,
	})
	if err != nil {
		t.Fatal(err)
	}
	return session
}

func listingNames(t *testing.T, session *Session, path string) []string {
	t.Helper()
	entries, err := session.List(path)
	if err != nil {
		t.Fatalf("List(%q): %v", path, err)
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

func TestEmptyRepositoryListsOnlyDots(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	session := newTestSession(t, store, false)

	names := listingNames(t, session, "/")
	if len(names) != 2 || names[0] != "." || names[1] != ".." {
		t.Fatalf("listing of / = %v, want [. ..]", names)
	}
}

func TestSessionRequiresExistingBranch(t *testing.T) {
	store := testutil.TempRepo(t, "main")

	_, err := NewSession(Options{Store: store, Branch: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMkdirCommitsAndLists(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	session := newTestSession(t, store, false)
	previousHead := testutil.Head(t, store, "main")

	if err := session.Mkdir("/docs"); err != nil {
		t.Fatal(err)
	}

	names := listingNames(t, session, "/")
	if len(names) != 3 || names[2] != "docs" {
		t.Fatalf("listing of / = %v, want [. .. docs]", names)
	}

	names = listingNames(t, session, "/docs")
	if len(names) != 2 {
		t.Fatalf("listing of /docs = %v, want [. ..]", names)
	}

	head := testutil.Head(t, store, "main")
	commit, err := store.ReadCommit(head)
	if err != nil {
		t.Fatal(err)
	}
	if commit.Parent == nil || *commit.Parent != previousHead {
		t.Error("mkdir commit does not chain on the pre-mkdir head")
	}
	if commit.Message != "mkdir /docs" {
		t.Errorf("message = %q", commit.Message)
	}
}

func TestMkdirInsideMissingParent(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	session := newTestSession(t, store, false)

	if err := session.Mkdir("/ghost/sub"); !errors.Is(err, ErrStructuralMismatch) {
		t.Fatalf("err = %v, want ErrStructuralMismatch", err)
	}
}

func TestStat(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitDir(t, store, "main", "/docs")
	testutil.CommitFile(t, store, "main", "/docs/readme", object.ModeFile, []byte("seven b"))
	session := newTestSession(t, store, false)

	attr, err := session.Stat("/docs/readme")
	if err != nil {
		t.Fatal(err)
	}
	if attr.Mode != object.ModeFile || attr.Size != 7 {
		t.Errorf("attr = %+v", attr)
	}

	attr, err = session.Stat("/docs")
	if err != nil {
		t.Fatal(err)
	}
	if !attr.Mode.IsDir() {
		t.Errorf("mode = %o, want directory", attr.Mode)
	}

	if _, err := session.Stat("/nonexistent/x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReadLink(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/link", object.ModeSymlink, []byte("/docs/readme"))
	testutil.CommitFile(t, store, "main", "/plain", object.ModeFile, []byte("not a link"))
	session := newTestSession(t, store, false)

	target, err := session.ReadLink("/link")
	if err != nil {
		t.Fatal(err)
	}
	if string(target) != "/docs/readme" {
		t.Errorf("target = %q", target)
	}

	if _, err := session.ReadLink("/plain"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("readlink on file: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := session.ReadLink("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("readlink on missing: err = %v, want ErrNotFound", err)
	}
}

func TestOpenErrors(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitDir(t, store, "main", "/docs")
	session := newTestSession(t, store, false)

	if err := session.Open("/docs"); !errors.Is(err, ErrIsADirectory) {
		t.Errorf("open dir: err = %v, want ErrIsADirectory", err)
	}
	if err := session.Open("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("open missing: err = %v, want ErrNotFound", err)
	}
}

func TestReadWithoutOpen(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/file", object.ModeFile, []byte("stored"))
	session := newTestSession(t, store, false)

	if _, err := session.ReadAt("/file", 6, 0); !errors.Is(err, ErrResourceBusy) {
		t.Fatalf("err = %v, want ErrResourceBusy", err)
	}
}

func TestCreateRequiresParentDirectory(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/file", object.ModeFile, []byte("x"))
	session := newTestSession(t, store, false)

	if err := session.Create("/ghost/new"); !errors.Is(err, ErrNotFound) {
		t.Errorf("create under missing dir: err = %v, want ErrNotFound", err)
	}
	if err := session.Create("/file/new"); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("create under file: err = %v, want ErrNotADirectory", err)
	}
}

// TestCreateWriteRead covers the full in-session lifecycle of a new
// file: created as an empty buffer, written, read back.
func TestCreateWriteRead(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	session := newTestSession(t, store, false)

	if err := session.Mkdir("/docs"); err != nil {
		t.Fatal(err)
	}
	if err := session.Create("/docs/readme"); err != nil {
		t.Fatal(err)
	}
	if _, err := session.WriteAt("/docs/readme", []byte("hello"), 0); err != nil {
		t.Fatal(err)
	}

	got, err := session.ReadAt("/docs/readme", 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("read = %q, want hello", got)
	}
}

// TestWritesVanishOnReleaseWithoutPersist pins the historical
// behavior: buffered writes are never written back to the store, so a
// re-open after release sees the original stored content.
func TestWritesVanishOnReleaseWithoutPersist(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/file", object.ModeFile, []byte("stored"))
	session := newTestSession(t, store, false)

	if err := session.Open("/file"); err != nil {
		t.Fatal(err)
	}
	if _, err := session.WriteAt("/file", []byte("hello!"), 0); err != nil {
		t.Fatal(err)
	}
	got, _ := session.ReadAt("/file", 6, 0)
	if string(got) != "hello!" {
		t.Fatalf("in-session read = %q", got)
	}

	headBefore := testutil.Head(t, store, "main")
	if err := session.Release("/file"); err != nil {
		t.Fatal(err)
	}
	if head := testutil.Head(t, store, "main"); head != headBefore {
		t.Fatal("release without persist must not commit")
	}

	// Re-open: the buffer was discarded, the store never changed.
	if err := session.Open("/file"); err != nil {
		t.Fatal(err)
	}
	got, err := session.ReadAt("/file", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "stored" {
		t.Fatalf("re-opened content = %q, want the original %q", got, "stored")
	}
	if err := session.Release("/file"); err != nil {
		t.Fatal(err)
	}

	// A file created but never committed simply vanishes.
	if err := session.Create("/scratch"); err != nil {
		t.Fatal(err)
	}
	if _, err := session.WriteAt("/scratch", []byte("gone"), 0); err != nil {
		t.Fatal(err)
	}
	if err := session.Release("/scratch"); err != nil {
		t.Fatal(err)
	}
	if err := session.Open("/scratch"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("re-open of unpersisted create: err = %v, want ErrNotFound", err)
	}
}

// TestPersistOnReleaseCommitsFinalBuffer covers the configured fix for
// the persistence gap: the last release flushes the buffer as a blob
// and commits the rewritten tree chain.
func TestPersistOnReleaseCommitsFinalBuffer(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	session := newTestSession(t, store, true)

	if err := session.Mkdir("/docs"); err != nil {
		t.Fatal(err)
	}
	if err := session.Create("/docs/readme"); err != nil {
		t.Fatal(err)
	}
	if _, err := session.WriteAt("/docs/readme", []byte("hello"), 0); err != nil {
		t.Fatal(err)
	}

	headBefore := testutil.Head(t, store, "main")
	if err := session.Release("/docs/readme"); err != nil {
		t.Fatal(err)
	}

	head := testutil.Head(t, store, "main")
	if head == headBefore {
		t.Fatal("release with persist enabled must commit")
	}
	commit, err := store.ReadCommit(head)
	if err != nil {
		t.Fatal(err)
	}
	if commit.Parent == nil || *commit.Parent != headBefore {
		t.Error("flush commit does not chain on the pre-release head")
	}

	// The content is now stored: a fresh open sees it.
	if err := session.Open("/docs/readme"); err != nil {
		t.Fatal(err)
	}
	got, err := session.ReadAt("/docs/readme", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("persisted content = %q, want hello", got)
	}
	if err := session.Release("/docs/readme"); err != nil {
		t.Fatal(err)
	}
}

// TestPersistPreservesMode checks that flushing an existing executable
// keeps its stored mode instead of resetting it to a plain file.
func TestPersistPreservesMode(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/run.sh", object.ModeExecutable, []byte("#!/bin/sh\n"))
	session := newTestSession(t, store, true)

	if err := session.Open("/run.sh"); err != nil {
		t.Fatal(err)
	}
	if _, err := session.WriteAt("/run.sh", []byte("#!/bin/bash\n"), 0); err != nil {
		t.Fatal(err)
	}
	if err := session.Release("/run.sh"); err != nil {
		t.Fatal(err)
	}

	attr, err := session.Stat("/run.sh")
	if err != nil {
		t.Fatal(err)
	}
	if attr.Mode != object.ModeExecutable {
		t.Errorf("mode after flush = %o, want %o", attr.Mode, object.ModeExecutable)
	}
}

func TestReleaseWithoutOpen(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/file", object.ModeFile, []byte("x"))
	session := newTestSession(t, store, false)

	if err := session.Release("/file"); !errors.Is(err, ErrResourceBusy) {
		t.Fatalf("err = %v, want ErrResourceBusy", err)
	}
}

func TestListOnFile(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	testutil.CommitFile(t, store, "main", "/file", object.ModeFile, []byte("x"))
	session := newTestSession(t, store, false)

	if _, err := session.List("/file"); !errors.Is(err, ErrNotADirectory) {
		t.Fatalf("err = %v, want ErrNotADirectory", err)
	}
}

// TestMutationVisibleToNextOperation pins the no-caching rule: a
// commit made by one operation is seen by the next resolution.
func TestMutationVisibleToNextOperation(t *testing.T) {
	store := testutil.TempRepo(t, "main")
	session := newTestSession(t, store, false)

	if _, err := session.Stat("/docs"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pre-mkdir stat: %v", err)
	}
	if err := session.Mkdir("/docs"); err != nil {
		t.Fatal(err)
	}
	attr, err := session.Stat("/docs")
	if err != nil {
		t.Fatalf("post-mkdir stat: %v", err)
	}
	if !attr.Mode.IsDir() {
		t.Error("post-mkdir stat is not a directory")
	}
}
