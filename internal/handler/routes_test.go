// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"

	"github.com/olegiv/medlem-go/internal/route"
)

// emptyHandlers has every handler set so method values can be taken.
func emptyHandlers() Handlers {
	return Handlers{
		Pages:    &PagesHandler{},
		Auth:     &AuthHandler{},
		Members:  &MembersHandler{},
		Payments: &PaymentsHandler{},
		Sailings: &SailingsHandler{},
		Roles:    &RolesHandler{},
		Reports:  &ReportsHandler{},
		Events:   &EventsHandler{},
		Health:   &HealthHandler{},
		Webhooks: &WebhooksHandler{},
		Static:   http.NotFoundHandler(),
		Metrics:  http.NotFoundHandler(),
	}
}

func TestRouteTable_Builds(t *testing.T) {
	table, err := NewTable(emptyHandlers())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	public := map[string]bool{
		NameHome: true, NameShowLogin: true, NameLogin: true, NameShowRegister: true, NameRegister: true,
		NameRegisterActivate: true, NameShowRequestPassword: true, NameHandleRequestPassword: true,
		NameShowResetPassword: true, NameResetPassword: true, NameTechError: true, route.NotFound: true,
		NameGitHubWebhook: true, NameHealth: true, NameMetrics: true, NameStatic: true,
	}
	login := map[string]bool{NameUserHome: true, NameLogout: true}

	for _, rt := range table.Routes() {
		want := route.RequiresAdmin
		switch {
		case public[rt.Name]:
			want = route.Public
		case login[rt.Name]:
			want = route.RequiresLogin
		}
		if rt.Tier != want {
			t.Errorf("%s: tier %s, want %s", rt.Name, rt.Tier, want)
		}
		if rt.Name != route.NotFound && rt.Handler == nil {
			t.Errorf("%s: no handler", rt.Name)
		}
	}
}

func TestRouteTable_OptionalRoutes(t *testing.T) {
	h := emptyHandlers()
	h.Static = nil
	h.Metrics = nil
	table, err := NewTable(h)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	for _, name := range []string{NameStatic, NameMetrics} {
		if _, ok := table.Lookup(name); ok {
			t.Errorf("%s registered without a handler", name)
		}
	}
}

func TestRouteTable_URL(t *testing.T) {
	table, err := NewTable(emptyHandlers())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	tests := []struct {
		name   string
		params []string
		want   string
	}{
		{NameMemberEdit, []string{"42"}, "/medlem/42"},
		{NamePaymentMember, []string{"7"}, "/betalning/medlem/7"},
		{NameRoleMembers, []string{"3"}, "/roller/3/medlem"},
		{NameResetPassword, nil, "/password/reset"},
	}
	for _, tt := range tests {
		got, err := table.URL(tt.name, tt.params...)
		if err != nil {
			t.Errorf("URL(%s): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("URL(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRouteTable_GateURLs(t *testing.T) {
	table, err := NewTable(emptyHandlers())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	for name, want := range map[string]string{
		NameShowLogin: RouteLogin,
		NameUserHome:  RouteUser,
		NameTechError: RouteTechError,
	} {
		if got := table.MustURL(name); got != want {
			t.Errorf("MustURL(%s) = %q, want %q", name, got, want)
		}
	}
}

func TestWrap(t *testing.T) {
	called := 0
	fn := func(w http.ResponseWriter, r *http.Request) { called++ }
	if got := wrap(fn, nil); got == nil {
		t.Fatal("wrap with nil middleware returned nil")
	}

	wrapped := 0
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped++
			next.ServeHTTP(w, r)
		})
	}
	wrap(fn, mw)(nil, nil)
	if wrapped != 1 || called != 1 {
		t.Errorf("wrapped=%d called=%d", wrapped, called)
	}
}
