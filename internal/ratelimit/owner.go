// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package ratelimit bounds per-owner ingestion throughput. One noisy
// site must not be able to starve the event store for everyone else,
// so each owner gets an independent token bucket checked before any
// enrichment or write happens.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// OwnerLimiter maintains one token bucket per owner.
type OwnerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewOwnerLimiter creates a limiter allowing ratePerSecond sustained
// events per owner with the given burst.
func NewOwnerLimiter(ratePerSecond float64, burst int) *OwnerLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 50
	}
	if burst < 1 {
		burst = int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &OwnerLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(ratePerSecond),
		burst:    burst,
	}
}

// Allow reports whether the owner may ingest one more event now.
func (l *OwnerLimiter) Allow(ownerID string) bool {
	return l.limiterFor(ownerID).Allow()
}

// limiterFor returns the owner's bucket, creating it on first use.
func (l *OwnerLimiter) limiterFor(ownerID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[ownerID]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ownerID] = limiter
	}
	return limiter
}
