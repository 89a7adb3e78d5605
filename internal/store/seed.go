package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/medlem-go/internal/auth"
	"github.com/olegiv/medlem-go/internal/model"
)

// SeedAdmin describes the administrator created on first start.
type SeedAdmin struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Seed creates the default roles and, when admin.Email is set, an admin
// member. Existing rows are left alone.
func Seed(ctx context.Context, db *sql.DB, admin SeedAdmin) error {
	queries := New(db)

	for _, name := range model.DefaultRoles {
		_, err := queries.GetRoleByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking role %s: %w", name, err)
		}
		if _, err := queries.CreateRole(ctx, name, ""); err != nil {
			return fmt.Errorf("creating role %s: %w", name, err)
		}
		slog.Info("created role", "name", name)
	}

	if admin.Email == "" {
		return nil
	}

	_, err := queries.GetMemberByEmail(ctx, admin.Email)
	if err == nil {
		slog.Info("admin member already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin member: %w", err)
	}

	passwordHash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	firstName, lastName := admin.FirstName, admin.LastName
	if firstName == "" {
		firstName = "Admin"
	}
	if lastName == "" {
		lastName = "Administratör"
	}

	now := time.Now()
	return InTx(ctx, db, func(q *Queries) error {
		m, err := q.CreateMember(ctx, CreateMemberParams{
			BirthDate:            "1970-01-01",
			FirstName:            firstName,
			LastName:             lastName,
			Email:                sql.NullString{String: admin.Email, Valid: true},
			AcceptsCommunication: true,
			IsAdmin:              true,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		if err != nil {
			return fmt.Errorf("creating admin member: %w", err)
		}
		if _, err := q.SetMemberPassword(ctx, admin.Email, passwordHash, now); err != nil {
			return fmt.Errorf("setting admin password: %w", err)
		}
		slog.Info("created admin member", "id", m.ID, "email", admin.Email)
		return nil
	})
}
