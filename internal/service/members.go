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
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// MemberInput is the member form.
type MemberInput struct {
	FirstName            string `form:"fornamn" validate:"required,max=100"`
	LastName             string `form:"efternamn" validate:"required,max=100"`
	BirthDate            string `form:"fodelsedatum" validate:"required,datetime=2006-01-02"`
	Email                string `form:"email" validate:"omitempty,email,max=254"`
	Mobile               string `form:"mobil" validate:"max=50"`
	Phone                string `form:"telefon" validate:"max=50"`
	Address              string `form:"adress" validate:"max=200"`
	PostalCode           string `form:"postnummer" validate:"max=20"`
	City                 string `form:"postort" validate:"max=100"`
	Comment              string `form:"kommentar" validate:"max=2000"`
	GDPRConsent          bool   `form:"godkant_gdpr"`
	AcceptsCommunication bool   `form:"pref_kommunikation"`
	Company              bool   `form:"foretag"`
	LifeMember           bool   `form:"standig_medlem"`
	IsAdmin              bool   `form:"is_admin"`
	RoleIDs              []int64
}

func (in *MemberInput) normalize() {
	in.FirstName = clean(in.FirstName)
	in.LastName = clean(in.LastName)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Mobile = clean(in.Mobile)
	in.Phone = clean(in.Phone)
	in.Address = clean(in.Address)
	in.PostalCode = clean(in.PostalCode)
	in.City = clean(in.City)
	in.Comment = clean(in.Comment)
}

// MemberListItem is a member with the names of their roles.
type MemberListItem struct {
	store.Member
	RoleNames []string
}

// MemberDetail is everything the member edit page shows.
type MemberDetail struct {
	Member   store.Member
	Roles    []store.Role
	Payments []store.Payment
}

// HasRole reports whether the member holds roleID.
func (d MemberDetail) HasRole(roleID int64) bool {
	for _, r := range d.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// MemberService manages members and their roles.
type MemberService struct {
	db    *sql.DB
	q     *store.Queries
	cache *cache.Manager
	alias *AliasSync
	now   func() time.Time
}

// NewMemberService creates a MemberService. cache and alias may be nil.
func NewMemberService(db *sql.DB, cm *cache.Manager, alias *AliasSync) *MemberService {
	return &MemberService{
		db:    db,
		q:     store.New(db),
		cache: cm,
		alias: alias,
		now:   time.Now,
	}
}

// List returns all members ordered by name, each with their role names.
func (s *MemberService) List(ctx context.Context) ([]MemberListItem, error) {
	members, err := s.q.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	links, err := s.q.ListAllMemberRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing member roles: %w", err)
	}

	byMember := make(map[int64][]string)
	for _, l := range links {
		byMember[l.MemberID] = append(byMember[l.MemberID], l.RoleName)
	}

	items := make([]MemberListItem, len(members))
	for i, m := range members {
		items[i] = MemberListItem{Member: m, RoleNames: byMember[m.ID]}
	}
	return items, nil
}

// Get returns a member with roles and payments. A missing member is
// sql.ErrNoRows.
func (s *MemberService) Get(ctx context.Context, id int64) (MemberDetail, error) {
	m, err := s.q.GetMember(ctx, id)
	if err != nil {
		return MemberDetail{}, err
	}
	roles, err := s.q.ListMemberRoles(ctx, id)
	if err != nil {
		return MemberDetail{}, fmt.Errorf("listing roles for member %d: %w", id, err)
	}
	payments, err := s.q.ListPaymentsByMember(ctx, id)
	if err != nil {
		return MemberDetail{}, fmt.Errorf("listing payments for member %d: %w", id, err)
	}
	return MemberDetail{Member: m, Roles: roles, Payments: payments}, nil
}

// Create validates in and inserts the member with its roles.
func (s *MemberService) Create(ctx context.Context, in MemberInput) (store.Member, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return store.Member{}, err
	}
	if err := s.checkEmailFree(ctx, in.Email, 0); err != nil {
		return store.Member{}, err
	}

	now := s.now()
	var created store.Member
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		m, err := q.CreateMember(ctx, store.CreateMemberParams{
			BirthDate:            in.BirthDate,
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			Email:                util.NullStringFromValue(in.Email),
			Mobile:               in.Mobile,
			Phone:                in.Phone,
			Address:              in.Address,
			PostalCode:           in.PostalCode,
			City:                 in.City,
			Comment:              in.Comment,
			GDPRConsent:          in.GDPRConsent,
			AcceptsCommunication: in.AcceptsCommunication,
			Company:              in.Company,
			LifeMember:           in.LifeMember,
			IsAdmin:              in.IsAdmin,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		if err != nil {
			return fmt.Errorf("creating member: %w", err)
		}
		created = m
		return setRoles(ctx, q, m.ID, in.RoleIDs)
	})
	if err != nil {
		return store.Member{}, err
	}

	s.changed(ctx, "member created")
	return created, nil
}

// Update validates in and replaces the member's fields and roles.
func (s *MemberService) Update(ctx context.Context, id int64, in MemberInput) error {
	if _, err := s.q.GetMember(ctx, id); err != nil {
		return err
	}
	in.normalize()
	if err := validateStruct(in); err != nil {
		return err
	}
	if err := s.checkEmailFree(ctx, in.Email, id); err != nil {
		return err
	}

	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		err := q.UpdateMember(ctx, store.UpdateMemberParams{
			ID:                   id,
			BirthDate:            in.BirthDate,
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			Email:                util.NullStringFromValue(in.Email),
			Mobile:               in.Mobile,
			Phone:                in.Phone,
			Address:              in.Address,
			PostalCode:           in.PostalCode,
			City:                 in.City,
			Comment:              in.Comment,
			GDPRConsent:          in.GDPRConsent,
			AcceptsCommunication: in.AcceptsCommunication,
			Company:              in.Company,
			LifeMember:           in.LifeMember,
			IsAdmin:              in.IsAdmin,
			UpdatedAt:            s.now(),
		})
		if err != nil {
			return fmt.Errorf("updating member %d: %w", id, err)
		}
		if err := q.ClearMemberRoles(ctx, id); err != nil {
			return fmt.Errorf("clearing roles for member %d: %w", id, err)
		}
		return setRoles(ctx, q, id, in.RoleIDs)
	})
	if err != nil {
		return err
	}

	s.changed(ctx, "member updated")
	return nil
}

// Delete removes a member. Payments, roles and sailing places go with it.
func (s *MemberService) Delete(ctx context.Context, id int64) error {
	n, err := s.q.DeleteMember(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting member %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	s.changed(ctx, "member deleted")
	return nil
}

func (s *MemberService) checkEmailFree(ctx context.Context, email string, selfID int64) error {
	if email == "" {
		return nil
	}
	existing, err := s.q.GetMemberByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("checking email: %w", err)
	case existing.ID != selfID:
		return NewValidationError("email", "validation.email_taken")
	}
	return nil
}

func (s *MemberService) changed(ctx context.Context, reason string) {
	if s.cache != nil {
		s.cache.InvalidateMembers(ctx)
	}
	s.alias.Refresh(reason)
}

func setRoles(ctx context.Context, q *store.Queries, memberID int64, roleIDs []int64) error {
	for _, rid := range roleIDs {
		if _, err := q.GetRole(ctx, rid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewValidationError("roller", "validation.invalid")
			}
			return fmt.Errorf("loading role %d: %w", rid, err)
		}
		if err := q.AddMemberRole(ctx, memberID, rid); err != nil {
			return fmt.Errorf("adding role %d to member %d: %w", rid, memberID, err)
		}
	}
	return nil
}
