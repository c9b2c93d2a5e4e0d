// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock reads for testability. Production
// code injects Real(); tests inject a Fake with deterministic time
// control, which keeps commit timestamps (and therefore commit
// digests) reproducible.
package clock

import "time"

// Clock supplies the current time. Code that stamps commits or file
// attributes takes a Clock instead of calling time.Now directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
