// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for medlem.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/medlem-go/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary migrated database with the default roles
// seeded. It is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "medlem-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := store.Seed(context.Background(), db, store.SeedAdmin{}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return db
}

// MemberOption adjusts a member created by CreateMember.
type MemberOption func(*store.CreateMemberParams)

// WithEmail sets the member's email.
func WithEmail(email string) MemberOption {
	return func(p *store.CreateMemberParams) {
		p.Email = sql.NullString{String: email, Valid: email != ""}
	}
}

// AsAdmin marks the member as administrator.
func AsAdmin() MemberOption {
	return func(p *store.CreateMemberParams) { p.IsAdmin = true }
}

// AsLifeMember marks the member as a life member.
func AsLifeMember() MemberOption {
	return func(p *store.CreateMemberParams) { p.LifeMember = true }
}

// CreateMember inserts a member with sensible defaults.
func CreateMember(t *testing.T, db *sql.DB, first, last string, opts ...MemberOption) store.Member {
	t.Helper()

	now := time.Now()
	p := store.CreateMemberParams{
		BirthDate:            "1985-05-17",
		FirstName:            first,
		LastName:             last,
		AcceptsCommunication: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, opt := range opts {
		opt(&p)
	}

	m, err := store.New(db).CreateMember(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	return m
}
