// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package route holds the named route table and classifies each request
// into an access tier once, before any gate runs.
package route

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Tier is the access level a route requires.
type Tier int

// Tiers. The zero value is RequiresLogin so that anything unclassified
// fails closed.
const (
	RequiresLogin Tier = iota
	Public
	RequiresAdmin
)

func (t Tier) String() string {
	switch t {
	case Public:
		return "public"
	case RequiresLogin:
		return "login"
	case RequiresAdmin:
		return "admin"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// NotFound is the name reserved for the router's not-found handler.
const NotFound = "404"

// userPrefix marks routes any logged-in member may use.
const userPrefix = "user-"

// publicNames is the fixed allow-list of routes reachable without login.
var publicNames = map[string]bool{
	"show-login":              true,
	"login":                   true,
	"register":                true,
	"register-activate":       true,
	"show-request-password":   true,
	"handle-request-password": true,
	"show-reset-password":     true,
	"reset-password":          true,
	NotFound:                  true,
	"home":                    true,
}

// IsAllowListed reports whether name is on the fixed public allow-list.
func IsAllowListed(name string) bool {
	return publicNames[name]
}

// Route is one named endpoint.
type Route struct {
	Name    string
	Method  string
	Pattern string
	Tier    Tier
	Handler http.HandlerFunc
}

// Table errors.
var (
	ErrDuplicateName    = errors.New("duplicate route name")
	ErrDuplicatePattern = errors.New("duplicate method and pattern")
	ErrTierConflict     = errors.New("route tier conflicts with naming convention")
	ErrUnknownRoute     = errors.New("unknown route")
	ErrMissingParam     = errors.New("missing url parameter")
)

// Table is the static set of routes. It is read-only after NewTable returns.
type Table struct {
	routes []*Route
	byName map[string]*Route
	byKey  map[string]*Route
}

func key(method, pattern string) string {
	return method + " " + pattern
}

// NewTable validates and indexes routes.
//
// It rejects allow-listed names declared with a tier other than Public and
// user-* names declared RequiresAdmin.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		byName: make(map[string]*Route, len(routes)),
		byKey:  make(map[string]*Route, len(routes)),
	}

	for i := range routes {
		rt := routes[i]
		if rt.Name == "" {
			return nil, fmt.Errorf("route %s %s: empty name", rt.Method, rt.Pattern)
		}
		if _, dup := t.byName[rt.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, rt.Name)
		}
		if IsAllowListed(rt.Name) && rt.Tier != Public {
			return nil, fmt.Errorf("%w: %s is allow-listed but declared %s", ErrTierConflict, rt.Name, rt.Tier)
		}
		if strings.HasPrefix(rt.Name, userPrefix) && rt.Tier == RequiresAdmin {
			return nil, fmt.Errorf("%w: %s cannot require admin", ErrTierConflict, rt.Name)
		}

		stored := &rt
		t.routes = append(t.routes, stored)
		t.byName[rt.Name] = stored

		if rt.Pattern == "" {
			continue
		}
		k := key(rt.Method, rt.Pattern)
		if _, dup := t.byKey[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePattern, k)
		}
		t.byKey[k] = stored
	}

	return t, nil
}

// Lookup returns the route with the given name.
func (t *Table) Lookup(name string) (*Route, bool) {
	rt, ok := t.byName[name]
	return rt, ok
}

// Classify returns the tier of a named route. Unknown names require login.
func (t *Table) Classify(name string) Tier {
	if rt, ok := t.Lookup(name); ok {
		return rt.Tier
	}
	return RequiresLogin
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Register mounts every route with a pattern and handler on r.
func (t *Table) Register(r chi.Router) {
	for _, rt := range t.routes {
		if rt.Pattern == "" || rt.Handler == nil {
			continue
		}
		r.Method(rt.Method, rt.Pattern, rt.Handler)
	}
}

// URL builds the path of a named route, substituting {param} placeholders
// in order from params.
func (t *Table) URL(name string, params ...string) (string, error) {
	rt, ok := t.byName[name]
	if !ok || rt.Pattern == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}

	var b strings.Builder
	rest := rt.Pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		if len(params) == 0 {
			return "", fmt.Errorf("%w: %s needs %s", ErrMissingParam, name, rest[open:open+end+1])
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(params[0]))
		params = params[1:]
		rest = rest[open+end+1:]
	}

	return b.String(), nil
}

// MustURL is URL for names known at compile time. It panics on error.
func (t *Table) MustURL(name string, params ...string) string {
	u, err := t.URL(name, params...)
	if err != nil {
		panic(err)
	}
	return u
}

// Match is the result of resolving a request against the table.
type Match struct {
	Route   *Route
	Matched bool
	tier    Tier
}

// Tier returns the tier the request must satisfy, as classified by the
// table that resolved it. An unmatched request requires login.
func (m Match) Tier() Tier {
	if !m.Matched || m.Route == nil {
		return RequiresLogin
	}
	return m.tier
}

// Name returns the matched route name, or NotFound.
func (m Match) Name() string {
	if !m.Matched || m.Route == nil {
		return NotFound
	}
	return m.Route.Name
}

type contextKey struct{}

// WithMatch stores m in ctx.
func WithMatch(ctx context.Context, m Match) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the Match stored by Resolver. The second result is
// false if the request was never resolved.
func FromContext(ctx context.Context) (Match, bool) {
	m, ok := ctx.Value(contextKey{}).(Match)
	return m, ok
}

// Resolve matches method and path against mux and maps the chi pattern back
// to a table route.
func (t *Table) Resolve(mux chi.Routes, method, path string) Match {
	if m := t.resolve(mux, method, path); m.Matched {
		return m
	}
	// chi's GetHead serves HEAD through GET routes.
	if method == http.MethodHead {
		return t.resolve(mux, http.MethodGet, path)
	}
	return Match{}
}

func (t *Table) resolve(mux chi.Routes, method, path string) Match {
	rctx := chi.NewRouteContext()
	if !mux.Match(rctx, method, path) {
		return Match{}
	}
	rt, ok := t.byKey[key(method, rctx.RoutePattern())]
	if !ok {
		return Match{}
	}
	return Match{Route: rt, Matched: true, tier: t.Classify(rt.Name)}
}

// Resolver is middleware that resolves each request once and stores the
// Match in the request context for the gates downstream.
func (t *Table) Resolver(mux chi.Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := t.Resolve(mux, r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithMatch(r.Context(), m)))
		})
	}
}
