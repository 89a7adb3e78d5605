// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/medlem-go/internal/auth"
	"github.com/olegiv/medlem-go/internal/email"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
)

// Account errors. Handlers map them to messages with MessageKey.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSuchMember       = errors.New("no member with that email")
	ErrAlreadyRegistered  = errors.New("member already has a login")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

// MessageKey returns the i18n key for an account or password policy error.
// Unknown errors map to "error.generic".
func MessageKey(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "auth.invalid_credentials"
	case errors.Is(err, ErrNoSuchMember):
		return "register.no_member"
	case errors.Is(err, ErrAlreadyRegistered):
		return "register.already_registered"
	case errors.Is(err, ErrInvalidToken):
		return "token.invalid"
	case errors.Is(err, ErrAlreadyParticipant):
		return "sailing.already_participant"
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "password.mismatch"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "password.too_short"
	case errors.Is(err, auth.ErrPasswordNoUpper):
		return "password.no_upper"
	case errors.Is(err, auth.ErrPasswordNoLower):
		return "password.no_lower"
	case errors.Is(err, auth.ErrPasswordNoDigit):
		return "password.no_digit"
	case errors.Is(err, auth.ErrPasswordPersonalInfo):
		return "password.personal_info"
	}
	return "error.generic"
}

// AccountService handles login, registration and password reset.
type AccountService struct {
	q           *store.Queries
	mailer      MailSender
	siteAddress string
	now         func() time.Time
}

// NewAccountService creates an AccountService. Links in mails are built
// from siteAddress.
func NewAccountService(db *sql.DB, mailer MailSender, siteAddress string) *AccountService {
	return &AccountService{
		q:           store.New(db),
		mailer:      mailer,
		siteAddress: strings.TrimRight(siteAddress, "/"),
		now:         time.Now,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Authenticate checks email and password. Every failure is
// ErrInvalidCredentials and costs one hash comparison.
func (s *AccountService) Authenticate(ctx context.Context, emailAddr, password string) (store.Member, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return store.Member{}, ErrInvalidCredentials
	}

	m, err := s.q.GetMemberByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return store.Member{}, fmt.Errorf("loading member: %w", err)
		}
		auth.BurnPasswordCheck(password)
		slog.Info("login for unknown email", "email", emailAddr)
		return store.Member{}, ErrInvalidCredentials
	}
	if !m.HasPassword() {
		auth.BurnPasswordCheck(password)
		slog.Info("login for member without password", "member_id", m.ID)
		return store.Member{}, ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(password, m.PasswordHash.String)
	if err != nil {
		slog.Warn("stored password hash unreadable", "member_id", m.ID, "error", err,
			"category", model.EventCategoryAuth)
		return store.Member{}, ErrInvalidCredentials
	}
	if !ok {
		slog.Info("wrong password", "member_id", m.ID)
		return store.Member{}, ErrInvalidCredentials
	}

	if auth.NeedsRehash(m.PasswordHash.String) {
		if hash, err := auth.HashPassword(password); err == nil {
			if _, err := s.q.SetMemberPassword(ctx, emailAddr, hash, s.now()); err != nil {
				slog.Warn("password rehash failed", "member_id", m.ID, "error", err)
			}
		}
	}
	return m, nil
}

// Register starts activation for an existing member without a login. The
// chosen password is hashed into the activation token and only set on
// the member once the emailed link is followed.
func (s *AccountService) Register(ctx context.Context, emailAddr, password, repeat string) error {
	emailAddr = normalizeEmail(emailAddr)
	m, err := s.q.GetMemberByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || emailAddr == "" {
			return ErrNoSuchMember
		}
		return fmt.Errorf("loading member: %w", err)
	}
	if m.HasPassword() {
		return ErrAlreadyRegistered
	}
	if err := auth.CheckNewPassword(password, repeat, emailAddr, m.FirstName, m.LastName); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	raw, err := s.issueToken(ctx, emailAddr, model.TokenTypeActivate, sql.NullString{String: hash, Valid: true})
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, email.TypeVerification, emailAddr, email.Data{
		Name: m.FirstName,
		Link: s.siteAddress + "/register/" + raw,
	})
}

// Activate consumes an activation token and sets the member's password.
func (s *AccountService) Activate(ctx context.Context, raw string) (store.Member, error) {
	tok, err := s.loadToken(ctx, raw, model.TokenTypeActivate)
	if err != nil {
		return store.Member{}, err
	}
	if !tok.PasswordHash.Valid {
		return store.Member{}, ErrInvalidToken
	}

	m, err := s.setPassword(ctx, tok, tok.PasswordHash.String)
	if err != nil {
		return store.Member{}, err
	}
	s.notify(ctx, email.TypeVerificationSuccess, m)
	return m, nil
}

// RequestReset mails a reset link when emailAddr belongs to a member.
// Callers show the same message whatever the outcome; only storage
// failures are returned.
func (s *AccountService) RequestReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return nil
	}
	m, err := s.q.GetMemberByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Info("password reset for unknown email", "email", emailAddr)
			return nil
		}
		return fmt.Errorf("loading member: %w", err)
	}

	raw, err := s.issueToken(ctx, emailAddr, model.TokenTypeReset, sql.NullString{})
	if err != nil {
		return err
	}
	err = s.mailer.Send(ctx, email.TypePasswordReset, emailAddr, email.Data{
		Name: m.FirstName,
		Link: s.siteAddress + "/password/reset/" + raw,
	})
	if err != nil {
		slog.Error("password reset mail failed", "member_id", m.ID, "error", err,
			"category", model.EventCategoryMail)
	}
	return nil
}

// CheckResetToken reports ErrInvalidToken for a missing or expired token.
func (s *AccountService) CheckResetToken(ctx context.Context, raw string) error {
	_, err := s.loadToken(ctx, raw, model.TokenTypeReset)
	return err
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AccountService) ResetPassword(ctx context.Context, raw, password, repeat string) error {
	tok, err := s.loadToken(ctx, raw, model.TokenTypeReset)
	if err != nil {
		return err
	}
	m, err := s.q.GetMemberByEmail(ctx, tok.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return fmt.Errorf("loading member: %w", err)
	}
	if err := auth.CheckNewPassword(password, repeat, tok.Email, m.FirstName, m.LastName); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	m, err = s.setPassword(ctx, tok, hash)
	if err != nil {
		return err
	}
	s.notify(ctx, email.TypePasswordSuccess, m)
	return nil
}

// PurgeTokens deletes tokens older than model.TokenPurgeAfter.
func (s *AccountService) PurgeTokens(ctx context.Context) (int64, error) {
	n, err := s.q.DeleteAuthTokensBefore(ctx, s.now().Add(-model.TokenPurgeAfter))
	if err != nil {
		return 0, fmt.Errorf("purging auth tokens: %w", err)
	}
	return n, nil
}

func (s *AccountService) issueToken(ctx context.Context, emailAddr, typ string, pwHash sql.NullString) (string, error) {
	raw, hash, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	_, err = s.q.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		Email:        emailAddr,
		Token:        hash,
		Type:         typ,
		PasswordHash: pwHash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("storing %s token: %w", typ, err)
	}
	return raw, nil
}

func (s *AccountService) loadToken(ctx context.Context, raw, typ string) (store.AuthToken, error) {
	if raw == "" {
		return store.AuthToken{}, ErrInvalidToken
	}
	tok, err := s.q.GetAuthToken(ctx, auth.HashToken(raw), typ)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.AuthToken{}, ErrInvalidToken
		}
		return store.AuthToken{}, fmt.Errorf("loading token: %w", err)
	}
	if auth.TokenExpired(tok.CreatedAt, s.now(), model.TokenValidFor) {
		return store.AuthToken{}, ErrInvalidToken
	}
	return tok, nil
}

func (s *AccountService) setPassword(ctx context.Context, tok store.AuthToken, hash string) (store.Member, error) {
	n, err := s.q.SetMemberPassword(ctx, tok.Email, hash, s.now())
	if err != nil {
		return store.Member{}, fmt.Errorf("setting password: %w", err)
	}
	if n == 0 {
		return store.Member{}, ErrInvalidToken
	}
	if err := s.q.DeleteAuthToken(ctx, tok.Token); err != nil {
		slog.Warn("failed to delete used token", "error", err)
	}
	m, err := s.q.GetMemberByEmail(ctx, tok.Email)
	if err != nil {
		return store.Member{}, fmt.Errorf("loading member: %w", err)
	}
	return m, nil
}

func (s *AccountService) notify(ctx context.Context, typ email.Type, m store.Member) {
	if err := s.mailer.Send(ctx, typ, m.Email.String, email.Data{Name: m.FirstName}); err != nil {
		slog.Error("confirmation mail failed", "type", string(typ), "member_id", m.ID, "error", err,
			"category", model.EventCategoryMail)
	}
}
