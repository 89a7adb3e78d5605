// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package route

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func noop(w http.ResponseWriter, r *http.Request) {}

func testRoutes() []Route {
	return []Route{
		{Name: "home", Method: http.MethodGet, Pattern: "/", Tier: Public, Handler: noop},
		{Name: "show-login", Method: http.MethodGet, Pattern: "/login", Tier: Public, Handler: noop},
		{Name: "login", Method: http.MethodPost, Pattern: "/login", Tier: Public, Handler: noop},
		{Name: NotFound, Tier: Public},
		{Name: "user-home", Method: http.MethodGet, Pattern: "/user", Tier: RequiresLogin, Handler: noop},
		{Name: "medlem-edit", Method: http.MethodGet, Pattern: "/medlem/{id}", Tier: RequiresAdmin, Handler: noop},
		{Name: "medlem-save", Method: http.MethodPost, Pattern: "/medlem/{id}", Tier: RequiresAdmin, Handler: noop},
		{Name: "medlem-new", Method: http.MethodGet, Pattern: "/medlem/new", Tier: RequiresAdmin, Handler: noop},
		{Name: "roll-medlemmar", Method: http.MethodGet, Pattern: "/roller/{id}/medlem", Tier: RequiresAdmin, Handler: noop},
	}
}

func mustTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(testRoutes()...)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{Public, "public"},
		{RequiresLogin, "login"},
		{RequiresAdmin, "admin"},
		{Tier(9), "tier(9)"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", int(tt.tier), got, tt.want)
		}
	}
}

func TestTier_ZeroValueFailsClosed(t *testing.T) {
	var tier Tier
	if tier != RequiresLogin {
		t.Errorf("zero Tier = %v, want RequiresLogin", tier)
	}
}

func TestNewTable_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
		want   error
	}{
		{
			name: "allow-listed declared admin",
			routes: []Route{
				{Name: "login", Method: http.MethodPost, Pattern: "/login", Tier: RequiresAdmin},
			},
			want: ErrTierConflict,
		},
		{
			name: "allow-listed declared login",
			routes: []Route{
				{Name: "home", Method: http.MethodGet, Pattern: "/", Tier: RequiresLogin},
			},
			want: ErrTierConflict,
		},
		{
			name: "user route declared admin",
			routes: []Route{
				{Name: "user-home", Method: http.MethodGet, Pattern: "/user", Tier: RequiresAdmin},
			},
			want: ErrTierConflict,
		},
		{
			name: "duplicate name",
			routes: []Route{
				{Name: "a", Method: http.MethodGet, Pattern: "/a", Tier: RequiresAdmin},
				{Name: "a", Method: http.MethodGet, Pattern: "/b", Tier: RequiresAdmin},
			},
			want: ErrDuplicateName,
		},
		{
			name: "duplicate pattern",
			routes: []Route{
				{Name: "a", Method: http.MethodGet, Pattern: "/a", Tier: RequiresAdmin},
				{Name: "b", Method: http.MethodGet, Pattern: "/a", Tier: RequiresAdmin},
			},
			want: ErrDuplicatePattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.routes...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewTable() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewTable_EmptyName(t *testing.T) {
	if _, err := NewTable(Route{Method: http.MethodGet, Pattern: "/x"}); err == nil {
		t.Error("expected error for empty route name")
	}
}

func TestTable_Classify(t *testing.T) {
	tbl := mustTable(t)

	tests := []struct {
		name string
		want Tier
	}{
		{"home", Public},
		{"login", Public},
		{NotFound, Public},
		{"user-home", RequiresLogin},
		{"medlem-edit", RequiresAdmin},
		{"no-such-route", RequiresLogin},
	}
	for _, tt := range tests {
		if got := tbl.Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTable_URL(t *testing.T) {
	tbl := mustTable(t)

	tests := []struct {
		name   string
		params []string
		want   string
	}{
		{"home", nil, "/"},
		{"show-login", nil, "/login"},
		{"medlem-edit", []string{"42"}, "/medlem/42"},
		{"roll-medlemmar", []string{"3"}, "/roller/3/medlem"},
		{"medlem-edit", []string{"a b"}, "/medlem/a%20b"},
	}
	for _, tt := range tests {
		got, err := tbl.URL(tt.name, tt.params...)
		if err != nil {
			t.Errorf("URL(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("URL(%q, %v) = %q, want %q", tt.name, tt.params, got, tt.want)
		}
	}
}

func TestTable_URLErrors(t *testing.T) {
	tbl := mustTable(t)

	if _, err := tbl.URL("missing"); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("URL(missing) error = %v, want ErrUnknownRoute", err)
	}
	if _, err := tbl.URL(NotFound); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("URL(404) error = %v, want ErrUnknownRoute", err)
	}
	if _, err := tbl.URL("medlem-edit"); !errors.Is(err, ErrMissingParam) {
		t.Errorf("URL(medlem-edit) error = %v, want ErrMissingParam", err)
	}
}

func TestTable_MustURLPanics(t *testing.T) {
	tbl := mustTable(t)
	defer func() {
		if recover() == nil {
			t.Error("MustURL should panic for unknown route")
		}
	}()
	tbl.MustURL("missing")
}

func newMux(t *testing.T, tbl *Table) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	tbl.Register(r)
	return r
}

func TestTable_Resolve(t *testing.T) {
	tbl := mustTable(t)
	mux := newMux(t, tbl)

	tests := []struct {
		method  string
		path    string
		name    string
		matched bool
		tier    Tier
	}{
		{http.MethodGet, "/", "home", true, Public},
		{http.MethodGet, "/login", "show-login", true, Public},
		{http.MethodPost, "/login", "login", true, Public},
		{http.MethodHead, "/login", "show-login", true, Public},
		{http.MethodGet, "/medlem/42", "medlem-edit", true, RequiresAdmin},
		{http.MethodPost, "/medlem/42", "medlem-save", true, RequiresAdmin},
		{http.MethodGet, "/medlem/new", "medlem-new", true, RequiresAdmin},
		{http.MethodGet, "/roller/3/medlem", "roll-medlemmar", true, RequiresAdmin},
		{http.MethodGet, "/user", "user-home", true, RequiresLogin},
		{http.MethodPost, "/api/whatever", NotFound, false, RequiresLogin},
		{http.MethodDelete, "/login", NotFound, false, RequiresLogin},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			m := tbl.Resolve(mux, tt.method, tt.path)
			if m.Matched != tt.matched {
				t.Errorf("Matched = %v, want %v", m.Matched, tt.matched)
			}
			if m.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", m.Name(), tt.name)
			}
			if m.Tier() != tt.tier {
				t.Errorf("Tier() = %v, want %v", m.Tier(), tt.tier)
			}
		})
	}
}

func TestTable_ResolveTierFollowsClassify(t *testing.T) {
	tbl := mustTable(t)
	mux := newMux(t, tbl)

	for _, rt := range tbl.Routes() {
		if rt.Pattern == "" || strings.Contains(rt.Pattern, "{") {
			continue
		}
		m := tbl.Resolve(mux, rt.Method, rt.Pattern)
		if !m.Matched {
			t.Errorf("%s %s did not resolve", rt.Method, rt.Pattern)
			continue
		}
		if got, want := m.Tier(), tbl.Classify(m.Name()); got != want {
			t.Errorf("%s: Match.Tier() = %v, Classify = %v", rt.Name, got, want)
		}
	}
}

func TestResolver_StoresMatch(t *testing.T) {
	tbl := mustTable(t)

	var got Match
	var found bool
	r := chi.NewRouter()
	r.Use(tbl.Resolver(r))
	r.Get("/medlem/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, found = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/medlem/7", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("Match not stored in context")
	}
	if got.Name() != "medlem-edit" || got.Tier() != RequiresAdmin {
		t.Errorf("Match = %s/%v, want medlem-edit/admin", got.Name(), got.Tier())
	}
}

func TestFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := FromContext(req.Context()); ok {
		t.Error("FromContext should report false on unresolved request")
	}
}
