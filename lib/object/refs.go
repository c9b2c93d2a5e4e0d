// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidateBranch rejects branch names that would escape the refs
// directory or produce an unusable ref file. Slashes are allowed
// (feature/x is a normal branch name); empty names and dot-dot
// segments are not.
func ValidateBranch(name string) error {
	if name == "" {
		return fmt.Errorf("branch name is empty")
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("invalid branch name %q", name)
		}
	}
	return nil
}

// ResolveRef returns the digest a branch ref points at, and whether
// the ref exists. A missing ref is not an error — callers decide
// whether absence is fatal (it is at mount time and at commit time).
func (s *Store) ResolveRef(name string) (Digest, bool, error) {
	if err := ValidateBranch(name); err != nil {
		return Digest{}, false, err
	}

	raw, err := os.ReadFile(s.refPath(name))
	if os.IsNotExist(err) {
		return Digest{}, false, nil
	}
	if err != nil {
		return Digest{}, false, fmt.Errorf("reading ref %s: %w", name, err)
	}

	digest, err := ParseDigest(strings.TrimSpace(string(raw)))
	if err != nil {
		return Digest{}, false, fmt.Errorf("reading ref %s: %w", name, err)
	}
	return digest, true, nil
}

// UpdateRef points a branch ref at the given commit digest, creating
// the ref if it does not exist. The write is atomic (temp file plus
// rename) so a concurrent ResolveRef sees either the old digest or the
// new one, never a torn write.
func (s *Store) UpdateRef(name string, digest Digest) error {
	if err := ValidateBranch(name); err != nil {
		return err
	}

	refPath := s.refPath(name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("updating ref %s: %w", name, err)
	}

	temp, err := os.CreateTemp(filepath.Dir(refPath), ".tmp-ref-*")
	if err != nil {
		return fmt.Errorf("updating ref %s: %w", name, err)
	}
	tempName := temp.Name()

	_, writeErr := fmt.Fprintf(temp, "%s\n", FormatDigest(digest))
	if closeErr := temp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tempName)
		return fmt.Errorf("updating ref %s: %w", name, writeErr)
	}

	if err := os.Rename(tempName, refPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("updating ref %s: %w", name, err)
	}
	return nil
}

// Bootstrap writes the empty tree, an initial parentless commit
// pointing at it, and a branch ref naming that commit. It is the
// programmatic way to create a mountable branch in a fresh repository;
// the mount path itself never creates branches.
func (s *Store) Bootstrap(branch string, author Signature, when time.Time) (Digest, error) {
	treeDigest, err := s.WriteTree(&Tree{})
	if err != nil {
		return Digest{}, fmt.Errorf("bootstrapping branch %s: %w", branch, err)
	}

	author.When = when
	commitDigest, err := s.WriteCommit(&Commit{
		Tree:      treeDigest,
		Author:    author,
		Committer: author,
		Message:   "initial commit",
	})
	if err != nil {
		return Digest{}, fmt.Errorf("bootstrapping branch %s: %w", branch, err)
	}

	if err := s.UpdateRef(branch, commitDigest); err != nil {
		return Digest{}, fmt.Errorf("bootstrapping branch %s: %w", branch, err)
	}
	return commitDigest, nil
}

// refPath returns the ref file for a branch name.
func (s *Store) refPath(name string) string {
	return filepath.Join(s.root, "refs", "heads", filepath.FromSlash(name))
}
