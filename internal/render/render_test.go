// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/olegiv/medlem-go/internal/session"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "base"}}<main>{{if .Flash}}<p class="{{.FlashType}}">{{.Flash}}</p>{{end}}` +
				`{{template "content" .}}{{template "csrf" .}}</main>{{end}}`)},
		"partials/csrf.html": {Data: []byte(
			`{{define "csrf"}}<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">{{end}}`)},
		"auth/login.html": {Data: []byte(
			`{{define "content"}}<h1>{{.Title}}</h1>{{if .LoggedIn}}in{{else}}out{{end}}{{end}}`)},
		"admin/comment.html": {Data: []byte(
			`{{define "content"}}{{markdown .Data}}{{end}}`)},
		"errors/404.html": {Data: []byte(
			`{{define "content"}}missing{{end}}`)},
	}
}

func newTestRenderer(t *testing.T, sess session.Session) *Renderer {
	t.Helper()
	r, err := New(Config{TemplatesFS: testFS(), Session: sess})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNew_ParsesPageDirectories(t *testing.T) {
	r := newTestRenderer(t, nil)

	for _, name := range []string{"auth/login", "admin/comment", "errors/404"} {
		if !r.Has(name) {
			t.Errorf("template %s not parsed", name)
		}
	}
	if r.Has("partials/csrf") || r.Has("layouts/base") {
		t.Error("layouts and partials must not be pages")
	}
}

func TestRender_FillsSessionData(t *testing.T) {
	sess := session.NewMemory()
	ctx := context.Background()
	sess.SetFlash(ctx, session.FlashError, "Fel lösenord")
	r := newTestRenderer(t, sess)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()
	if err := r.Render(w, req, "auth/login", TemplateData{Title: "Logga in"}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, `<p class="error">Fel lösenord</p>`) {
		t.Errorf("flash missing from body: %s", body)
	}
	tok := sess.GetString(ctx, session.KeyCSRFToken)
	if len(tok) != 64 {
		t.Fatalf("csrf token length = %d, want 64", len(tok))
	}
	if !strings.Contains(body, `value="`+tok+`"`) {
		t.Error("csrf token not embedded in page")
	}
	if !strings.Contains(body, "out") {
		t.Error("expected logged-out state")
	}
	if _, ok := sess.PopFlash(ctx); ok {
		t.Error("flash should be consumed by rendering")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderStatus(t *testing.T) {
	r := newTestRenderer(t, session.NewMemory())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)

	if err := r.RenderStatus(w, req, http.StatusNotFound, "errors/404", TemplateData{}); err != nil {
		t.Fatalf("RenderStatus: %v", err)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := r.Render(w, req, "admin/missing", TemplateData{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestMarkdown_Sanitizes(t *testing.T) {
	r := newTestRenderer(t, nil)

	got := string(r.Markdown("**fet** <script>alert(1)</script>"))
	if !strings.Contains(got, "<strong>fet</strong>") {
		t.Errorf("markdown not converted: %s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("script survived sanitizing: %s", got)
	}
	if r.Markdown("") != "" {
		t.Error("empty input should give empty output")
	}
}

func TestSetFlash(t *testing.T) {
	sess := session.NewMemory()
	r := newTestRenderer(t, sess)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	r.SetFlash(req, "Sparat", session.FlashSuccess)

	f, ok := sess.PopFlash(req.Context())
	if !ok || f.Message != "Sparat" || f.Type != session.FlashSuccess {
		t.Errorf("flash = %+v, %v", f, ok)
	}
}
