// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MarshalTree encodes a tree in the canonical wire format: for each
// entry, the octal mode (no leading zeros, as git writes it), a space,
// the filename, a NUL byte, and the raw digest bytes, concatenated in
// entry order. Zero entries encode to a zero-length byte sequence —
// the empty tree is an ordinary base case, not a special one.
func MarshalTree(tree *Tree) []byte {
	var content bytes.Buffer
	for _, entry := range tree.Entries {
		content.WriteString(strconv.FormatUint(uint64(entry.Mode), 8))
		content.WriteByte(' ')
		content.WriteString(entry.Name)
		content.WriteByte(0)
		content.Write(entry.Target[:])
	}
	return content.Bytes()
}

// UnmarshalTree decodes a tree's entry sequence, preserving order.
func UnmarshalTree(content []byte) (*Tree, error) {
	tree := &Tree{}
	offset := 0
	for offset < len(content) {
		nulIndex := bytes.IndexByte(content[offset:], 0)
		if nulIndex < 0 {
			return nil, fmt.Errorf("corrupt tree: entry header is missing its NUL terminator")
		}

		header := string(content[offset : offset+nulIndex])
		modeText, name, found := strings.Cut(header, " ")
		if !found || name == "" {
			return nil, fmt.Errorf("corrupt tree: malformed entry header %q", header)
		}
		mode, err := strconv.ParseUint(modeText, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("corrupt tree: mode %q: %w", modeText, err)
		}

		digestStart := offset + nulIndex + 1
		digestEnd := digestStart + len(Digest{})
		if digestEnd > len(content) {
			return nil, fmt.Errorf("corrupt tree: truncated digest for entry %q", name)
		}

		var target Digest
		copy(target[:], content[digestStart:digestEnd])

		tree.Entries = append(tree.Entries, Entry{
			Name:   name,
			Mode:   Mode(mode),
			Target: target,
		})
		offset = digestEnd
	}
	return tree, nil
}

// MarshalCommit encodes a commit in the git text format: tree and
// optional parent headers, author and committer signatures with unix
// timestamps, a blank line, then the message.
func MarshalCommit(commit *Commit) []byte {
	var content bytes.Buffer
	fmt.Fprintf(&content, "tree %s\n", FormatDigest(commit.Tree))
	if commit.Parent != nil {
		fmt.Fprintf(&content, "parent %s\n", FormatDigest(*commit.Parent))
	}
	fmt.Fprintf(&content, "author %s\n", formatSignature(commit.Author))
	fmt.Fprintf(&content, "committer %s\n", formatSignature(commit.Committer))
	content.WriteByte('\n')
	content.WriteString(commit.Message)
	return content.Bytes()
}

// UnmarshalCommit decodes a commit written by MarshalCommit or by git.
// Headers this design does not produce (gpgsig, mergetag, extra merge
// parents) are skipped rather than rejected so that commits written by
// other tools still resolve.
func UnmarshalCommit(content []byte) (*Commit, error) {
	headerPart, message, found := strings.Cut(string(content), "\n\n")
	if !found {
		return nil, fmt.Errorf("corrupt commit: missing blank line before message")
	}

	commit := &Commit{Message: message}
	sawTree := false

	for _, line := range strings.Split(headerPart, "\n") {
		// Continuation lines (multi-line gpgsig) start with a space.
		if strings.HasPrefix(line, " ") {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("corrupt commit: malformed header line %q", line)
		}

		switch key {
		case "tree":
			digest, err := ParseDigest(value)
			if err != nil {
				return nil, fmt.Errorf("corrupt commit: tree header: %w", err)
			}
			commit.Tree = digest
			sawTree = true
		case "parent":
			digest, err := ParseDigest(value)
			if err != nil {
				return nil, fmt.Errorf("corrupt commit: parent header: %w", err)
			}
			if commit.Parent == nil {
				commit.Parent = &digest
			}
		case "author":
			signature, err := parseSignature(value)
			if err != nil {
				return nil, fmt.Errorf("corrupt commit: author header: %w", err)
			}
			commit.Author = signature
		case "committer":
			signature, err := parseSignature(value)
			if err != nil {
				return nil, fmt.Errorf("corrupt commit: committer header: %w", err)
			}
			commit.Committer = signature
		}
	}

	if !sawTree {
		return nil, fmt.Errorf("corrupt commit: missing tree header")
	}
	return commit, nil
}

// formatSignature renders "Name <email> <unix seconds> +0000". The
// timezone is always written as UTC; the stored unix timestamp is
// unambiguous regardless.
func formatSignature(signature Signature) string {
	return fmt.Sprintf("%s <%s> %d +0000",
		signature.Name, signature.Email, signature.When.Unix())
}

// parseSignature decodes the signature format written by
// formatSignature (and by git). The timezone suffix is accepted in any
// form but the returned time is UTC.
func parseSignature(value string) (Signature, error) {
	emailStart := strings.IndexByte(value, '<')
	emailEnd := strings.IndexByte(value, '>')
	if emailStart < 0 || emailEnd < emailStart {
		return Signature{}, fmt.Errorf("malformed signature %q", value)
	}

	name := strings.TrimSpace(value[:emailStart])
	email := value[emailStart+1 : emailEnd]

	rest := strings.Fields(value[emailEnd+1:])
	if len(rest) < 1 {
		return Signature{}, fmt.Errorf("signature %q is missing a timestamp", value)
	}
	seconds, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("signature timestamp %q: %w", rest[0], err)
	}

	return Signature{
		Name:  name,
		Email: email,
		When:  time.Unix(seconds, 0).UTC(),
	}, nil
}
