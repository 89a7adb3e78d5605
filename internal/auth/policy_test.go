// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"testing"
)

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "Havsorn42", nil},
		{"too short", "Ab1", ErrPasswordTooShort},
		{"no upper", "havsorn42", ErrPasswordNoUpper},
		{"no lower", "HAVSORN42", ErrPasswordNoLower},
		{"no digit", "Havsornen", ErrPasswordNoDigit},
		{"contains email local part", "Xanna.b12", ErrPasswordPersonalInfo},
		{"contains first name", "ANNAsegla1", ErrPasswordPersonalInfo},
		{"contains last name", "Berg12345x", ErrPasswordPersonalInfo},
		{"non-ascii letters count", "Åskväder9", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPolicy(tt.password, "anna.b@example.com", "Anna", "Berg")
			if !errors.Is(err, tt.want) {
				t.Errorf("CheckPolicy(%q) = %v, want %v", tt.password, err, tt.want)
			}
		})
	}
}

func TestCheckPolicy_ShortNamesIgnored(t *testing.T) {
	if err := CheckPolicy("Bojan0Li", "li@example.com", "Li", "Bo"); err != nil {
		t.Errorf("names shorter than 3 characters should be ignored, got %v", err)
	}
}

func TestCheckNewPassword_Mismatch(t *testing.T) {
	err := CheckNewPassword("Havsorn42", "Havsorn43", "x@example.com", "Eva", "Lind")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("err = %v, want ErrPasswordMismatch", err)
	}
}
