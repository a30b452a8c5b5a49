// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package anonymize derives stable, non-reversible visitor tokens from
// caller addresses. Raw addresses never reach the store; only the
// keyed digest produced here is persisted.
package anonymize

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sitebeacon/sitebeacon/internal/logging"
)

// TokenLength is the length of tokens produced by Token, in hex
// characters (16 bytes of HMAC-SHA256 output).
const TokenLength = 32

// UnknownAddress is the placeholder used when no caller address could
// be resolved from the request.
const UnknownAddress = "unknown"

// Anonymizer produces keyed one-way digests of caller addresses.
// The same address always maps to the same token for a given key, so
// unique-visitor counts remain meaningful without retaining addresses.
type Anonymizer struct {
	key []byte
}

// New creates an Anonymizer keyed with secret. When secret is empty a
// random per-process key is generated; tokens then do not survive a
// restart, which breaks unique-visitor continuity across restarts.
func New(secret string) (*Anonymizer, error) {
	if secret != "" {
		return &Anonymizer{key: []byte(secret)}, nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate anonymizer key: %w", err)
	}

	logging.Warn().Msg("IP_HASH_SECRET not set; using random per-process key, visitor tokens will not survive restarts")

	return &Anonymizer{key: key}, nil
}

// Token returns the anonymized token for addr. An empty addr is
// treated as UnknownAddress so unresolvable callers still bucket
// together deterministically.
func (a *Anonymizer) Token(addr string) string {
	if addr == "" {
		addr = UnknownAddress
	}

	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(addr))
	sum := mac.Sum(nil)

	return hex.EncodeToString(sum[:TokenLength/2])
}
