// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Auth token types.
const (
	TokenTypeActivate = "activate"
	TokenTypeReset    = "reset"
)

// Token lifetimes. Tokens are usable for TokenValidFor and purged after
// TokenPurgeAfter.
const (
	TokenValidFor   = 30 * time.Minute
	TokenPurgeAfter = time.Hour
)

// Role names with special meaning on the sailing edit page.
const (
	RoleSkipper     = "Skeppare"
	RoleMate        = "Båtsman"
	RoleCook        = "Kock"
	RoleBoard       = "Styrelse"
	RoleMaintenance = "Underhåll"
)

// DefaultRoles are seeded on first start.
var DefaultRoles = []string{RoleSkipper, RoleMate, RoleCook, RoleBoard, RoleMaintenance}

// DateLayout is the format of birth, payment and sailing dates.
const DateLayout = "2006-01-02"
