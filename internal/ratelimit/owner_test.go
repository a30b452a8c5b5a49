// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package ratelimit

import (
	"sync"
	"testing"
)

func TestAllowWithinBurst(t *testing.T) {
	t.Parallel()

	l := NewOwnerLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("owner-1") {
			t.Fatalf("request %d within burst was denied", i)
		}
	}
	if l.Allow("owner-1") {
		t.Error("request beyond burst was allowed")
	}
}

func TestOwnersAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewOwnerLimiter(1, 1)

	if !l.Allow("owner-1") {
		t.Fatal("first request for owner-1 denied")
	}
	if l.Allow("owner-1") {
		t.Error("owner-1 exceeded burst but was allowed")
	}
	if !l.Allow("owner-2") {
		t.Error("owner-2 was throttled by owner-1's bucket")
	}

	l.mu.Lock()
	got := len(l.limiters)
	l.mu.Unlock()
	if got != 2 {
		t.Errorf("tracked %d owners, want 2", got)
	}
}

func TestAllowConcurrent(t *testing.T) {
	t.Parallel()

	l := NewOwnerLimiter(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Allow("shared-owner")
			}
		}()
	}
	wg.Wait()

	l.mu.Lock()
	got := len(l.limiters)
	l.mu.Unlock()
	if got != 1 {
		t.Errorf("tracked %d owners, want 1", got)
	}
}

func TestNewOwnerLimiterDefaults(t *testing.T) {
	t.Parallel()

	l := NewOwnerLimiter(0, 0)
	if !l.Allow("owner") {
		t.Error("limiter with defaulted settings denied first request")
	}
}
