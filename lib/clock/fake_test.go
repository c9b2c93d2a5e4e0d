// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := NewFake(start)

	if !fake.Now().Equal(start) {
		t.Fatalf("Now = %v, want %v", fake.Now(), start)
	}

	fake.Advance(90 * time.Second)
	if got := fake.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("after Advance, Now = %v", got)
	}

	fake.Set(start)
	if !fake.Now().Equal(start) {
		t.Fatal("Set did not pin the time")
	}
}
