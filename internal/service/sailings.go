// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/medlem-go/internal/cache"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
)

// ErrAlreadyParticipant is returned when a member is added to a sailing
// twice. Handlers show it as "sailing.already_participant".
var ErrAlreadyParticipant = errors.New("member is already on the sailing")

// SailingInput is the sailing form.
type SailingInput struct {
	StartDate string `form:"startdatum" validate:"required,datetime=2006-01-02"`
	EndDate   string `form:"slutdatum" validate:"required,datetime=2006-01-02"`
	Crew      string `form:"skeppslag" validate:"required,max=200"`
	Comment   string `form:"kommentar" validate:"max=2000"`
}

func (in *SailingInput) normalize() {
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	in.Crew = clean(in.Crew)
	in.Comment = clean(in.Comment)
}

func (in SailingInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	// Both dates parsed above, so the layout comparison is lexical.
	if in.EndDate < in.StartDate {
		return NewValidationError("slutdatum", "validation.end_before_start")
	}
	return nil
}

// SailingWithParticipants is a row on the sailing list.
type SailingWithParticipants struct {
	store.Sailing
	Participants []store.Participant
}

// SailingEdit is everything the sailing edit page shows.
type SailingEdit struct {
	Sailing      store.Sailing
	Participants []store.Participant
	Roles        []store.Role
	Skippers     []store.MemberSummary
	Mates        []store.MemberSummary
	Cooks        []store.MemberSummary
}

// StartYear is the year payments are checked against.
func (e SailingEdit) StartYear() int {
	t, err := time.Parse(model.DateLayout, e.Sailing.StartDate)
	if err != nil {
		return 0
	}
	return t.Year()
}

// SailingService manages sailings and their crews.
type SailingService struct {
	q     *store.Queries
	cache *cache.Manager
	now   func() time.Time
}

// NewSailingService creates a SailingService. cache may be nil.
func NewSailingService(db *sql.DB, cm *cache.Manager) *SailingService {
	return &SailingService{q: store.New(db), cache: cm, now: time.Now}
}

// List returns all sailings, newest first, with participants.
func (s *SailingService) List(ctx context.Context) ([]SailingWithParticipants, error) {
	sailings, err := s.q.ListSailings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sailings: %w", err)
	}
	items := make([]SailingWithParticipants, len(sailings))
	for i, sl := range sailings {
		parts, err := s.q.ListParticipants(ctx, sl.ID)
		if err != nil {
			return nil, fmt.Errorf("listing participants for sailing %d: %w", sl.ID, err)
		}
		items[i] = SailingWithParticipants{Sailing: sl, Participants: parts}
	}
	return items, nil
}

// Get loads the edit page data. A missing sailing is sql.ErrNoRows.
func (s *SailingService) Get(ctx context.Context, id int64) (SailingEdit, error) {
	sl, err := s.q.GetSailing(ctx, id)
	if err != nil {
		return SailingEdit{}, err
	}
	parts, err := s.q.ListParticipants(ctx, id)
	if err != nil {
		return SailingEdit{}, fmt.Errorf("listing participants for sailing %d: %w", id, err)
	}
	roles, err := s.roles(ctx)
	if err != nil {
		return SailingEdit{}, err
	}

	edit := SailingEdit{Sailing: sl, Participants: parts, Roles: roles}
	for _, c := range []struct {
		role string
		dst  *[]store.MemberSummary
	}{
		{model.RoleSkipper, &edit.Skippers},
		{model.RoleMate, &edit.Mates},
		{model.RoleCook, &edit.Cooks},
	} {
		members, err := s.q.ListMembersByRoleName(ctx, c.role)
		if err != nil {
			return SailingEdit{}, fmt.Errorf("listing %s candidates: %w", c.role, err)
		}
		*c.dst = members
	}
	return edit, nil
}

func (s *SailingService) roles(ctx context.Context) ([]store.Role, error) {
	var (
		roles []store.Role
		err   error
	)
	if s.cache != nil {
		roles, err = s.cache.Roles(ctx, s.q)
	} else {
		roles, err = s.q.ListRoles(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return roles, nil
}

// Create validates and inserts a sailing.
func (s *SailingService) Create(ctx context.Context, in SailingInput) (store.Sailing, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return store.Sailing{}, err
	}
	sl, err := s.q.CreateSailing(ctx, store.CreateSailingParams{
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Crew:      in.Crew,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	})
	if err != nil {
		return store.Sailing{}, fmt.Errorf("creating sailing: %w", err)
	}
	return sl, nil
}

// Update validates and saves a sailing.
func (s *SailingService) Update(ctx context.Context, id int64, in SailingInput) error {
	in.normalize()
	if err := in.validate(); err != nil {
		return err
	}
	n, err := s.q.UpdateSailing(ctx, store.UpdateSailingParams{
		ID:        id,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Crew:      in.Crew,
		Comment:   in.Comment,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("updating sailing %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a sailing and its crew list.
func (s *SailingService) Delete(ctx context.Context, id int64) error {
	n, err := s.q.DeleteSailing(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting sailing %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddParticipant puts a member on a sailing with an optional role. A missing
// sailing or member is sql.ErrNoRows.
func (s *SailingService) AddParticipant(ctx context.Context, sailingID, memberID int64, roleID sql.NullInt64) error {
	if _, err := s.q.GetSailing(ctx, sailingID); err != nil {
		return err
	}
	if _, err := s.q.GetMember(ctx, memberID); err != nil {
		return err
	}
	if roleID.Valid {
		if _, err := s.q.GetRole(ctx, roleID.Int64); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewValidationError("roll_id", "validation.invalid")
			}
			return fmt.Errorf("loading role %d: %w", roleID.Int64, err)
		}
	}

	exists, err := s.q.HasParticipant(ctx, sailingID, memberID)
	if err != nil {
		return fmt.Errorf("checking participant: %w", err)
	}
	if exists {
		return ErrAlreadyParticipant
	}
	if err := s.q.AddParticipant(ctx, sailingID, memberID, roleID); err != nil {
		return fmt.Errorf("adding member %d to sailing %d: %w", memberID, sailingID, err)
	}
	return nil
}

// RemoveParticipant takes a member off a sailing.
func (s *SailingService) RemoveParticipant(ctx context.Context, sailingID, memberID int64) error {
	n, err := s.q.RemoveParticipant(ctx, sailingID, memberID)
	if err != nil {
		return fmt.Errorf("removing member %d from sailing %d: %w", memberID, sailingID, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
