// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/medlem-go/internal/auth"
	"github.com/olegiv/medlem-go/internal/cache"
	"github.com/olegiv/medlem-go/internal/email"
	"github.com/olegiv/medlem-go/internal/importer"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/session"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/testutil"
	"github.com/olegiv/medlem-go/internal/webhook"
	"github.com/olegiv/medlem-go/web"
)

const testPassword = "Seglare2025"

// recordingMailer keeps sent mails instead of rendering them.
type recordingMailer struct {
	sent []email.Type
}

func (m *recordingMailer) Send(_ context.Context, typ email.Type, _ string, _ email.Data) error {
	m.sent = append(m.sent, typ)
	return nil
}

// stubDeployer is a Deployer that records scheduled branches.
type stubDeployer struct {
	enabled   bool
	branch    string
	scheduled []string
	err       error
}

func (d *stubDeployer) Enabled() bool              { return d.enabled }
func (d *stubDeployer) Matches(branch string) bool { return branch == d.branch }
func (d *stubDeployer) Schedule(branch string) (webhook.Job, error) {
	if d.err != nil {
		return webhook.Job{}, d.err
	}
	d.scheduled = append(d.scheduled, branch)
	now := time.Now()
	return webhook.Job{ID: "job-1", Branch: branch, ScheduledAt: now, RunAt: now.Add(time.Minute)}, nil
}

// testApp is the full router: route table, gates and real handlers over a
// temporary database.
type testApp struct {
	handler  http.Handler
	db       *sql.DB
	sess     *session.Memory
	mailer   *recordingMailer
	deployer *stubDeployer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.TestDB(t)
	sess := session.NewMemory()
	mailer := &recordingMailer{}
	deployer := &stubDeployer{enabled: true, branch: "main"}

	renderer, err := render.New(render.Config{TemplatesFS: web.Templates(), Session: sess})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	cm := cache.NewManager(cache.NewMemoryCache(cache.MemoryCacheOptions{}), "memory", time.Minute)
	members := service.NewMemberService(db, cm, nil)
	payments := service.NewPaymentService(db, cm, mailer, true)
	reports := service.NewReportService(db, cm)
	roles := service.NewRoleService(db, cm)
	sailings := service.NewSailingService(db, cm)
	events := service.NewEventService(db, nil)
	accounts := service.NewAccountService(db, mailer, "https://medlem.example/")

	pages := NewPagesHandler(renderer, sess, members, payments, reports)
	h := Handlers{
		Pages:    pages,
		Auth:     NewAuthHandler(renderer, sess, accounts, events, nil, nil),
		Members:  NewMembersHandler(renderer, members, roles, importer.NewImporter(db, testutil.TestLoggerSilent())),
		Payments: NewPaymentsHandler(renderer, payments),
		Sailings: NewSailingsHandler(renderer, sailings),
		Roles:    NewRolesHandler(renderer, roles),
		Reports:  NewReportsHandler(renderer, reports),
		Events:   NewEventsHandler(renderer, events),
		Health:   NewHealthHandler(db, sess, nil),
		Webhooks: NewWebhooksHandler("hemligt", deployer),
	}
	table, err := NewTable(h)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	gates := &middleware.Gates{
		Session:            sess,
		LoginURL:           RouteLogin,
		UserHomeURL:        RouteUser,
		ErrorURL:           RouteTechError,
		CSRFExemptPrefixes: []string{"/webhooks/"},
		NotFound:           http.HandlerFunc(pages.NotFound),
	}

	r := chi.NewRouter()
	r.Use(table.Resolver(r))
	r.Use(gates.Pipeline())
	table.Register(r)
	r.NotFound(pages.NotFound)

	return &testApp{
		handler:  r,
		db:       db,
		sess:     sess,
		mailer:   mailer,
		deployer: deployer,
	}
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// loginAs puts a member into the session the way a successful login does.
func (a *testApp) loginAs(t *testing.T, m store.Member) {
	t.Helper()
	ctx := context.Background()
	a.sess.Set(ctx, session.KeyUserID, m.ID)
	a.sess.Set(ctx, session.KeyFirstName, m.FirstName)
	a.sess.Set(ctx, session.KeyIsAdmin, m.IsAdmin)
}

func (a *testApp) admin(t *testing.T) store.Member {
	t.Helper()
	m := testutil.CreateMember(t, a.db, "Eva", "Admin", testutil.WithEmail("eva@example.se"), testutil.AsAdmin())
	a.loginAs(t, m)
	return m
}

func (a *testApp) token(t *testing.T) string {
	t.Helper()
	tok, err := a.sess.CSRFToken(context.Background())
	if err != nil {
		t.Fatalf("CSRFToken: %v", err)
	}
	return tok
}

func (a *testApp) setPassword(t *testing.T, emailAddr string) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	n, err := store.New(a.db).SetMemberPassword(context.Background(), emailAddr, hash, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("SetMemberPassword: n=%d err=%v", n, err)
	}
}

func (a *testApp) flash(t *testing.T) session.Flash {
	t.Helper()
	f, ok := a.sess.PopFlash(context.Background())
	if !ok {
		t.Fatal("no flash set")
	}
	return f
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, token string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AJAXHeader, middleware.AJAXValue)
	if token != "" {
		req.Header.Set(middleware.CSRFHeaderName, token)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode JSON body: %v (status %d)", err, rec.Code)
	}
	return out
}
