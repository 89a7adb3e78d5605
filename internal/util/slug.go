// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared by the service, importer and
// handler packages: transliterated identifiers and form value parsing.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var nonIdent = regexp.MustCompile(`[^a-z0-9]+`)

// Identifier transliterates s to ASCII, lowercases it and joins the
// alphanumeric runs with sep. "Förnamn" becomes "fornamn" and
// "Ständig medlem" becomes "standig_medlem" with sep "_".
func Identifier(s, sep string) string {
	ascii := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(nonIdent.ReplaceAllString(ascii, " ")), sep)
}

// Slugify converts s to a hyphenated lowercase ASCII slug.
func Slugify(s string) string {
	return Identifier(s, "-")
}
