// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"
)

func TestGenerateToken(t *testing.T) {
	tok, hash, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if len(tok) != TokenBytes*2 {
		t.Errorf("token length = %d, want %d", len(tok), TokenBytes*2)
	}
	if hash != HashToken(tok) {
		t.Error("returned hash does not match HashToken")
	}
	if hash == tok {
		t.Error("hash must differ from token")
	}

	tok2, _, _ := GenerateToken()
	if tok == tok2 {
		t.Error("tokens should be unique")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		age  time.Duration
		want bool
	}{
		{0, false},
		{29 * time.Minute, false},
		{30 * time.Minute, false},
		{31 * time.Minute, true},
	}
	for _, tt := range tests {
		if got := TokenExpired(now.Add(-tt.age), now, 30*time.Minute); got != tt.want {
			t.Errorf("TokenExpired(age %v) = %v, want %v", tt.age, got, tt.want)
		}
	}
}
