// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		input string
		id    int64
		ok    bool
	}{
		{"42", 42, true},
		{" 7 ", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		id, ok := ParseID(tt.input)
		if id != tt.id || ok != tt.ok {
			t.Errorf("ParseID(%q) = (%d, %v), want (%d, %v)", tt.input, id, ok, tt.id, tt.ok)
		}
	}
}

func TestParseNullInt64Positive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullInt64
	}{
		{"empty string", "", sql.NullInt64{}},
		{"zero", "0", sql.NullInt64{}},
		{"negative", "-5", sql.NullInt64{}},
		{"positive", "3", sql.NullInt64{Int64: 3, Valid: true}},
		{"invalid", "kock", sql.NullInt64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNullInt64Positive(tt.input); got != tt.expected {
				t.Errorf("ParseNullInt64Positive(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNullStringFromValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullString
	}{
		{"empty string", "", sql.NullString{}},
		{"whitespace", "   ", sql.NullString{}},
		{"value", "anna@example.se", sql.NullString{String: "anna@example.se", Valid: true}},
		{"trimmed", " anna@example.se ", sql.NullString{String: "anna@example.se", Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NullStringFromValue(tt.input); got != tt.expected {
				t.Errorf("NullStringFromValue(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNullStringValue(t *testing.T) {
	if got := NullStringValue(sql.NullString{}); got != "" {
		t.Errorf("invalid NullString = %q, want empty", got)
	}
	if got := NullStringValue(sql.NullString{String: "x", Valid: true}); got != "x" {
		t.Errorf("valid NullString = %q, want x", got)
	}
}

func TestFormBool(t *testing.T) {
	for _, v := range []string{"1", "on", "true", "Ja", "x"} {
		if !FormBool(v) {
			t.Errorf("FormBool(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "0", "off", "nej", "false"} {
		if FormBool(v) {
			t.Errorf("FormBool(%q) = true, want false", v)
		}
	}
}
