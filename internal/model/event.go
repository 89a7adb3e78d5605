// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds domain constants shared by the store, services and
// handlers.
package model

import "slices"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventLevels lists the levels from least to most severe.
var EventLevels = []string{EventLevelInfo, EventLevelWarning, EventLevelError}

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryMember  = "member"
	EventCategoryPayment = "payment"
	EventCategorySailing = "sailing"
	EventCategoryImport  = "import"
	EventCategoryMail    = "mail"
	EventCategoryDeploy  = "deploy"
	EventCategorySystem  = "system"
)

// EventCategories lists every category for filter menus.
var EventCategories = []string{
	EventCategoryAuth,
	EventCategoryMember,
	EventCategoryPayment,
	EventCategorySailing,
	EventCategoryImport,
	EventCategoryMail,
	EventCategoryDeploy,
	EventCategorySystem,
}

// ValidEventLevel reports whether level is a known event level.
func ValidEventLevel(level string) bool {
	return slices.Contains(EventLevels, level)
}

// ValidEventCategory reports whether category is a known event category.
func ValidEventCategory(category string) bool {
	return slices.Contains(EventCategories, category)
}
