// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/medlem-go/internal/auth"
	"github.com/olegiv/medlem-go/internal/email"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/testutil"
)

const (
	testSite     = "https://medlem.example"
	goodPassword = "Seglare2025"
)

type accountsFixture struct {
	svc    *AccountService
	mailer *fakeMailer
	db     *sql.DB
	q      *store.Queries
}

func newAccounts(t *testing.T) accountsFixture {
	t.Helper()
	db := testutil.TestDB(t)
	mailer := &fakeMailer{}
	return accountsFixture{
		svc:    NewAccountService(db, mailer, testSite+"/"),
		mailer: mailer,
		db:     db,
		q:      store.New(db),
	}
}

func (f accountsFixture) lena(t *testing.T) store.Member {
	t.Helper()
	return testutil.CreateMember(t, f.db, "Lena", "Holm", testutil.WithEmail("lena@example.se"))
}

func tokenFromLink(t *testing.T, mailer *fakeMailer, prefix string) string {
	t.Helper()
	m, ok := mailer.last()
	require.True(t, ok, "no mail sent")
	require.True(t, strings.HasPrefix(m.Data.Link, testSite+prefix), "link %q", m.Data.Link)
	return strings.TrimPrefix(m.Data.Link, testSite+prefix)
}

func TestAccountService_RegisterAndActivate(t *testing.T) {
	f := newAccounts(t)
	svc, mailer, q := f.svc, f.mailer, f.q
	ctx := context.Background()
	m := f.lena(t)

	require.NoError(t, svc.Register(ctx, " Lena@Example.se", goodPassword, goodPassword))
	sent, _ := mailer.last()
	assert.Equal(t, email.TypeVerification, sent.Type)
	assert.Equal(t, "lena@example.se", sent.To)

	raw := tokenFromLink(t, mailer, "/register/")
	assert.Len(t, raw, auth.TokenBytes*2)

	// Not usable before activation.
	_, err := svc.Authenticate(ctx, "lena@example.se", goodPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	activated, err := svc.Activate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, m.ID, activated.ID)
	assert.Equal(t, 1, mailer.count(email.TypeVerificationSuccess))

	got, err := svc.Authenticate(ctx, "lena@example.se", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = q.GetAuthToken(ctx, auth.HashToken(raw), model.TokenTypeActivate)
	assert.Error(t, err, "token is deleted after use")
	_, err = svc.Activate(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, svc.Register(ctx, "lena@example.se", goodPassword, goodPassword), ErrAlreadyRegistered)
}

func TestAccountService_RegisterRejects(t *testing.T) {
	f := newAccounts(t)
	svc, mailer := f.svc, f.mailer
	ctx := context.Background()
	f.lena(t)

	tests := []struct {
		name     string
		email    string
		password string
		repeat   string
		want     error
	}{
		{"unknown member", "nobody@example.se", goodPassword, goodPassword, ErrNoSuchMember},
		{"empty email", "", goodPassword, goodPassword, ErrNoSuchMember},
		{"mismatch", "lena@example.se", goodPassword, goodPassword + "x", auth.ErrPasswordMismatch},
		{"too short", "lena@example.se", "Ab1", "Ab1", auth.ErrPasswordTooShort},
		{"contains name", "lena@example.se", "Holmen2025", "Holmen2025", auth.ErrPasswordPersonalInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(ctx, tt.email, tt.password, tt.repeat)
			assert.ErrorIs(t, err, tt.want)
			assert.NotEqual(t, "error.generic", MessageKey(err))
		})
	}
	_, ok := mailer.last()
	assert.False(t, ok)
}

func TestAccountService_ActivationExpires(t *testing.T) {
	f := newAccounts(t)
	svc, mailer := f.svc, f.mailer
	ctx := context.Background()
	f.lena(t)

	require.NoError(t, svc.Register(ctx, "lena@example.se", goodPassword, goodPassword))
	raw := tokenFromLink(t, mailer, "/register/")

	svc.now = func() time.Time { return time.Now().Add(model.TokenValidFor + time.Minute) }
	_, err := svc.Activate(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccountService_PasswordReset(t *testing.T) {
	f := newAccounts(t)
	svc, mailer := f.svc, f.mailer
	ctx := context.Background()
	f.lena(t)

	require.NoError(t, svc.RequestReset(ctx, "lena@example.se"))
	sent, _ := mailer.last()
	assert.Equal(t, email.TypePasswordReset, sent.Type)
	raw := tokenFromLink(t, mailer, "/password/reset/")

	require.NoError(t, svc.CheckResetToken(ctx, raw))
	assert.ErrorIs(t, svc.CheckResetToken(ctx, "bogus"), ErrInvalidToken)

	assert.ErrorIs(t, svc.ResetPassword(ctx, raw, "weak", "weak"), auth.ErrPasswordTooShort)
	require.NoError(t, svc.ResetPassword(ctx, raw, goodPassword, goodPassword))
	assert.Equal(t, 1, mailer.count(email.TypePasswordSuccess))

	_, err := svc.Authenticate(ctx, "LENA@example.se", goodPassword)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CheckResetToken(ctx, raw), ErrInvalidToken)
}

func TestAccountService_RequestResetUnknownIsSilent(t *testing.T) {
	f := newAccounts(t)
	svc, mailer := f.svc, f.mailer

	require.NoError(t, svc.RequestReset(context.Background(), "ghost@example.se"))
	require.NoError(t, svc.RequestReset(context.Background(), ""))
	_, ok := mailer.last()
	assert.False(t, ok)
}

func TestAccountService_AuthenticateFailures(t *testing.T) {
	f := newAccounts(t)
	svc, q := f.svc, f.q
	ctx := context.Background()
	m := f.lena(t)
	hash, err := auth.HashPassword(goodPassword)
	require.NoError(t, err)
	_, err = q.SetMemberPassword(ctx, "lena@example.se", hash, time.Now())
	require.NoError(t, err)

	for _, c := range [][2]string{
		{"", goodPassword},
		{"lena@example.se", ""},
		{"lena@example.se", "Fel2025xx"},
		{"ghost@example.se", goodPassword},
	} {
		_, err := svc.Authenticate(ctx, c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%v", c)
		assert.Equal(t, "auth.invalid_credentials", MessageKey(err))
	}

	got, err := svc.Authenticate(ctx, "lena@example.se", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestAccountService_PurgeTokens(t *testing.T) {
	f := newAccounts(t)
	svc, q := f.svc, f.q
	ctx := context.Background()

	old := time.Now().Add(-2 * model.TokenPurgeAfter)
	_, err := q.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		Email: "a@example.se", Token: "old", Type: model.TokenTypeReset, CreatedAt: old,
	})
	require.NoError(t, err)
	_, err = q.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		Email: "a@example.se", Token: "fresh", Type: model.TokenTypeReset, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	n, err := svc.PurgeTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = q.GetAuthToken(ctx, "fresh", model.TokenTypeReset)
	assert.NoError(t, err)
}
