// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/medlem-go/internal/session"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/testutil"
)

func TestMembersList(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)
	testutil.CreateMember(t, app.db, "Karin", "Segel")

	rec := app.serve(httptest.NewRequest(http.MethodGet, RouteMembers, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Karin") {
		t.Error("member missing from list")
	}
}

func TestMembersCreate_ValidationRerendersForm(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(postForm(RouteMembers+RouteSuffixNew, url.Values{
		"csrf_token":   {app.token(t)},
		"fornamn":      {""},
		"efternamn":    {"Holm"},
		"fodelsedatum": {"17 maj"},
		"email":        {"inte-en-adress"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Fältet är obligatoriskt.", "Ogiltig e-postadress.", `value="Holm"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestMembersCreate(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(postForm(RouteMembers+RouteSuffixNew, url.Values{
		"csrf_token":   {app.token(t)},
		"fornamn":      {"Lena"},
		"efternamn":    {"Holm"},
		"fodelsedatum": {"1990-03-01"},
		"email":        {"lena@example.se"},
		"godkant_gdpr": {"on"},
	}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteMembers {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if f := app.flash(t); f.Type != session.FlashSuccess || f.Message != "Lena Holm skapad" {
		t.Errorf("flash = %+v", f)
	}
	m, err := store.New(app.db).GetMemberByEmail(context.Background(), "lena@example.se")
	if err != nil {
		t.Fatalf("member not stored: %v", err)
	}
	if !m.GDPRConsent {
		t.Error("gdpr checkbox not stored")
	}
}

func TestMembersEditForm_NotFound(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	rec := app.serve(httptest.NewRequest(http.MethodGet, "/medlem/9999", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteMembers {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if f := app.flash(t); f.Type != session.FlashError {
		t.Errorf("flash = %+v", f)
	}
}

func TestMembersDelete(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)
	m := testutil.CreateMember(t, app.db, "Karin", "Segel")

	rec := app.serve(postForm(RouteMembersDelete, url.Values{
		"csrf_token": {app.token(t)},
		"id":         {fmt.Sprint(m.ID)},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if f := app.flash(t); f.Message != "Medlem borttagen" {
		t.Errorf("flash = %+v", f)
	}
	if _, err := store.New(app.db).GetMember(context.Background(), m.ID); err == nil {
		t.Error("member still present")
	}
}

func TestMembersImport_DryRun(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("csrf_token", app.token(t))
	_ = mw.WriteField("dry_run", "on")
	fw, err := mw.CreateFormFile("file", "medlemmar.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("Förnamn,Efternamn,E-post,Födelsedatum\nPer,Ek,per@example.se,1970-01-01\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, RouteMembersImport, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := app.serve(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := store.New(app.db).GetMemberByEmail(context.Background(), "per@example.se"); err == nil {
		t.Error("dry run stored a member")
	}
}

func TestMembersImport_NoFile(t *testing.T) {
	app := newTestApp(t)
	app.admin(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("csrf_token", app.token(t))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, RouteMembersImport, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := app.serve(req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != RouteMembersImport {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if f := app.flash(t); f.Message != "Ingen fil valdes." {
		t.Errorf("flash = %+v", f)
	}
}
