// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/medlem-go/internal/cache"
	"github.com/olegiv/medlem-go/internal/store"
)

// MaxUnpaidYears is the longest period the unpaid report covers.
const MaxUnpaidYears = 3

// UnpaidReport lists members without a payment in the period.
type UnpaidReport struct {
	Years    int
	FromYear int64
	ToYear   int64
	Members  []store.Member
}

// ReportService builds the admin reports.
type ReportService struct {
	q     *store.Queries
	cache *cache.Manager
	now   func() time.Time
}

// NewReportService creates a ReportService. cache may be nil.
func NewReportService(db *sql.DB, cm *cache.Manager) *ReportService {
	return &ReportService{q: store.New(db), cache: cm, now: time.Now}
}

// Unpaid returns non-life members with no payment for the current year or
// the years-1 years before it. years must be 1, 2 or 3.
func (s *ReportService) Unpaid(ctx context.Context, years int) (UnpaidReport, error) {
	if years < 1 || years > MaxUnpaidYears {
		return UnpaidReport{}, NewValidationError("ar", "validation.invalid")
	}
	to := int64(s.now().Year())
	from := to - int64(years) + 1

	var (
		members []store.Member
		err     error
	)
	if s.cache != nil {
		members, err = s.cache.UnpaidMembers(ctx, s.q, from, to)
	} else {
		members, err = s.q.ListUnpaidMembers(ctx, from, to)
	}
	if err != nil {
		return UnpaidReport{}, fmt.Errorf("listing unpaid members: %w", err)
	}
	return UnpaidReport{Years: years, FromYear: from, ToYear: to, Members: members}, nil
}

// Communication returns members who accept communication and have email.
func (s *ReportService) Communication(ctx context.Context) ([]store.Member, error) {
	var (
		members []store.Member
		err     error
	)
	if s.cache != nil {
		members, err = s.cache.CommunicationMembers(ctx, s.q)
	} else {
		members, err = s.q.ListCommunicationMembers(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listing communication members: %w", err)
	}
	return members, nil
}
