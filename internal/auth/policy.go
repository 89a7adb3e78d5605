// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Policy violations. Callers map them to user-facing messages.
var (
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordNoUpper      = errors.New("password needs an uppercase letter")
	ErrPasswordNoLower      = errors.New("password needs a lowercase letter")
	ErrPasswordNoDigit      = errors.New("password needs a digit")
	ErrPasswordPersonalInfo = errors.New("password contains personal information")
	ErrPasswordMismatch     = errors.New("passwords do not match")
)

// minPersonalPart is the shortest name or email part checked against the
// password.
const minPersonalPart = 3

// CheckPolicy validates password for the member identified by email and
// name. The first violation found is returned.
func CheckPolicy(password, email, firstName, lastName string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	}

	local, _, _ := strings.Cut(email, "@")
	lowered := strings.ToLower(password)
	for _, part := range []string{local, firstName, lastName} {
		part = strings.ToLower(strings.TrimSpace(part))
		if utf8.RuneCountInString(part) >= minPersonalPart && strings.Contains(lowered, part) {
			return ErrPasswordPersonalInfo
		}
	}
	return nil
}

// CheckNewPassword checks that the two entries match and pass CheckPolicy.
func CheckNewPassword(password, repeat, email, firstName, lastName string) error {
	if password != repeat {
		return ErrPasswordMismatch
	}
	return CheckPolicy(password, email, firstName, lastName)
}
