// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/medlem-go/internal/session"
	"github.com/olegiv/medlem-go/internal/testutil"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0 seconds"},
		{30 * time.Second, "30 seconds"},
		{59 * time.Second, "59 seconds"},
		{1 * time.Minute, "1 minute"},
		{90 * time.Second, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{59 * time.Minute, "59 minutes"},
		{1 * time.Hour, "1 hour"},
		{119 * time.Minute, "1 hour"},
		{2 * time.Hour, "2 hours"},
		{24 * time.Hour, "24 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.duration.String(), func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.want {
				t.Errorf("formatDuration(%v) = %q; want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"/medlem/42", true},
		{"/", true},
		{"", false},
		{"medlem", false},
		{"//evil.example", false},
		{"https://evil.example/", false},
		{"/\\evil.example", false},
	}
	for _, tt := range tests {
		if got := safeRedirect(tt.target); got != tt.want {
			t.Errorf("safeRedirect(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([0-9a-f]+)"`)

func TestLoginForm_EmbedsToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.serve(httptest.NewRequest(http.MethodGet, RouteLogin, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	m := csrfInput.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatal("login page has no csrf field")
	}
	if len(m[1]) != 64 {
		t.Errorf("token length = %d, want 64", len(m[1]))
	}
	if m[1] != app.token(t) {
		t.Error("page token differs from session token")
	}
}

func TestLogin_AdminFollowsSavedRedirect(t *testing.T) {
	app := newTestApp(t)
	m := testutil.CreateMember(t, app.db, "Eva", "Admin", testutil.WithEmail("eva@example.se"), testutil.AsAdmin())
	app.setPassword(t, "eva@example.se")

	// A navigation to an admin page while logged out remembers the path.
	rec := app.serve(httptest.NewRequest(http.MethodGet, "/medlem/42", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != RouteLogin {
		t.Fatalf("anonymous GET: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	app.sess.PopFlash(context.Background())

	before := app.token(t)
	rec = app.serve(postForm(RouteLogin, url.Values{
		"csrf_token": {before},
		"email":      {"  EVA@example.se "},
		"password":   {testPassword},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/medlem/42" {
		t.Errorf("Location = %q, want /medlem/42", loc)
	}

	ctx := context.Background()
	if got := app.sess.GetInt64(ctx, session.KeyUserID); got != m.ID {
		t.Errorf("user id = %d, want %d", got, m.ID)
	}
	if !app.sess.GetBool(ctx, session.KeyIsAdmin) {
		t.Error("admin flag not set")
	}
	if app.sess.Has(session.KeyRedirectURL) {
		t.Error("redirect url should be consumed")
	}
	if app.sess.Renewed() != 1 {
		t.Errorf("session renewed %d times, want 1", app.sess.Renewed())
	}
	if after := app.token(t); after == before || len(after) != 64 {
		t.Errorf("csrf token not rotated: before %s after %s", before, after)
	}
	if f := app.flash(t); f.Type != session.FlashSuccess || !strings.Contains(f.Message, "Eva") {
		t.Errorf("flash = %+v", f)
	}
}

func TestLogin_MemberGoesToUserPage(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateMember(t, app.db, "Olle", "Gast", testutil.WithEmail("olle@example.se"))
	app.setPassword(t, "olle@example.se")
	app.sess.Set(context.Background(), session.KeyRedirectURL, "/medlem")

	rec := app.serve(postForm(RouteLogin, url.Values{
		"csrf_token": {app.token(t)},
		"email":      {"olle@example.se"},
		"password":   {testPassword},
	}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteUser {
		t.Fatalf("status %d location %q, want 303 %s", rec.Code, rec.Header().Get("Location"), RouteUser)
	}
	if app.sess.GetBool(context.Background(), session.KeyIsAdmin) {
		t.Error("member must not be admin")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateMember(t, app.db, "Olle", "Gast", testutil.WithEmail("olle@example.se"))
	app.setPassword(t, "olle@example.se")

	rec := app.serve(postForm(RouteLogin, url.Values{
		"csrf_token": {app.token(t)},
		"email":      {"olle@example.se"},
		"password":   {"fel"},
	}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteLogin {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if app.sess.IsLoggedIn(context.Background()) {
		t.Error("failed login must not log in")
	}
	if f := app.flash(t); f.Type != session.FlashError || f.Message != "Felaktig e-postadress eller lösenord" {
		t.Errorf("flash = %+v", f)
	}
}

func TestLogin_WithoutTokenIsRejected(t *testing.T) {
	app := newTestApp(t)

	rec := app.serve(postForm(RouteLogin, url.Values{"email": {"a@b.se"}, "password": {"x"}}))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("login handler ran without csrf token")
	}
	if app.sess.IsLoggedIn(context.Background()) {
		t.Error("logged in without csrf token")
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(httptest.NewRequest(http.MethodGet, RouteLogout, nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != RouteLogin {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if app.sess.Destroyed() != 1 {
		t.Error("session not destroyed")
	}
	if app.sess.IsLoggedIn(context.Background()) {
		t.Error("still logged in after logout")
	}
}

func TestRegister_UnknownEmail(t *testing.T) {
	app := newTestApp(t)

	rec := app.serve(postForm(RouteRegister, url.Values{
		"csrf_token":      {app.token(t)},
		"email":           {"okand@example.se"},
		"password":        {testPassword},
		"password_repeat": {testPassword},
	}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteRegister {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if f := app.flash(t); f.Type != session.FlashError {
		t.Errorf("flash = %+v", f)
	}
	if len(app.mailer.sent) != 0 {
		t.Error("no mail should be sent for unknown addresses")
	}
}

func TestRegister_SendsActivationMail(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateMember(t, app.db, "Lena", "Holm", testutil.WithEmail("lena@example.se"))

	rec := app.serve(postForm(RouteRegister, url.Values{
		"csrf_token":      {app.token(t)},
		"email":           {"lena@example.se"},
		"password":        {testPassword},
		"password_repeat": {testPassword},
	}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteLogin {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(app.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(app.mailer.sent))
	}
}

func TestActivate_BadToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.serve(httptest.NewRequest(http.MethodGet, RouteRegister+"/nope", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteRegister {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if f := app.flash(t); f.Message != "Länken är ogiltig eller har gått ut." {
		t.Errorf("flash = %+v", f)
	}
}
