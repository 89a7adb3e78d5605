// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"path/filepath"
	"testing"
)

func TestOpen_EmptyPathDisabled(t *testing.T) {
	g, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error: %v", err)
	}
	if g.Enabled() {
		t.Error("lookup without database should be disabled")
	}
	if got := g.Country("8.8.8.8"); got != "" {
		t.Errorf("Country = %q, want empty", got)
	}
	if err := g.Reload(); err != nil {
		t.Errorf("Reload on disabled lookup: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	g, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	if g == nil || g.Enabled() {
		t.Error("missing database should give a disabled lookup")
	}
}

func TestCountry_LocalAddresses(t *testing.T) {
	g, _ := Open("")
	tests := []struct {
		ip   string
		want string
	}{
		{"10.0.0.1", Local},
		{"192.168.1.20", Local},
		{"172.16.5.5", Local},
		{"127.0.0.1", Local},
		{"::1", Local},
		{"fe80::1", Local},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		if got := g.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}
