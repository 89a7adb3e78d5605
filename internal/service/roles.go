// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/medlem-go/internal/cache"
	"github.com/olegiv/medlem-go/internal/store"
)

// RoleService lists roles and their holders.
type RoleService struct {
	q     *store.Queries
	cache *cache.Manager
}

// NewRoleService creates a RoleService. cache may be nil.
func NewRoleService(db *sql.DB, cm *cache.Manager) *RoleService {
	return &RoleService{q: store.New(db), cache: cm}
}

// List returns all roles by name.
func (s *RoleService) List(ctx context.Context) ([]store.Role, error) {
	if s.cache != nil {
		return s.cache.Roles(ctx, s.q)
	}
	roles, err := s.q.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return roles, nil
}

// Members returns the members holding roleID. A missing role is
// sql.ErrNoRows.
func (s *RoleService) Members(ctx context.Context, roleID int64) (store.Role, []store.MemberSummary, error) {
	role, err := s.q.GetRole(ctx, roleID)
	if err != nil {
		return store.Role{}, nil, err
	}
	var members []store.MemberSummary
	if s.cache != nil {
		members, err = s.cache.RoleMembers(ctx, s.q, roleID)
	} else {
		members, err = s.q.ListMembersByRoleID(ctx, roleID)
	}
	if err != nil {
		return store.Role{}, nil, fmt.Errorf("listing members of role %d: %w", roleID, err)
	}
	return role, members, nil
}
