// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TokenBytes is the entropy of an activation or reset token.
const TokenBytes = 20

// GenerateToken returns a URL-safe random token and the hash to store.
// Only the hash is persisted; the token itself goes in the emailed link.
func GenerateToken() (token, hash string, err error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating token: %w", err)
	}
	token = hex.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken returns the lookup hash of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenExpired reports whether a token created at createdAt is older than
// validFor at now.
func TokenExpired(createdAt, now time.Time, validFor time.Duration) bool {
	return now.Sub(createdAt) > validFor
}
