// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pager

import (
	"net/http/httptest"
	"net/url"
	"testing"
)

func numbers(p Pager) []int {
	var out []int
	for _, pg := range p.Pages {
		if pg.Ellipsis {
			out = append(out, 0)
			continue
		}
		out = append(out, pg.Number)
	}
	return out
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_Window(t *testing.T) {
	tests := []struct {
		name    string
		current int
		items   int64
		want    []int // 0 marks an ellipsis
	}{
		{"single page", 1, 10, []int{1}},
		{"few pages", 2, 150, []int{1, 2, 3}},
		{"start", 1, 500, []int{1, 2, 3, 4, 5, 0, 10}},
		{"middle", 5, 500, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}},
		{"end", 10, 500, []int{1, 0, 6, 7, 8, 9, 10}},
		{"adjacent first", 4, 500, []int{1, 2, 3, 4, 5, 6, 0, 10}},
		{"clamped", 99, 500, []int{1, 0, 6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.current, tt.items, 50, "/events", nil)
			if got := numbers(p); !equal(got, tt.want) {
				t.Errorf("pages = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_LinksKeepFilters(t *testing.T) {
	q := url.Values{"level": {"error"}, "category": {""}, "page": {"2"}}
	p := New(2, 120, 50, "/events", q)

	if p.PrevURL != "/events?level=error&page=1" {
		t.Errorf("PrevURL = %q", p.PrevURL)
	}
	if p.NextURL != "/events?level=error&page=3" {
		t.Errorf("NextURL = %q", p.NextURL)
	}
	if !p.Pages[1].Current {
		t.Error("page 2 should be current")
	}
	if !p.Show() {
		t.Error("three pages should show")
	}
}

func TestNew_NoPrevOnFirstNoNextOnLast(t *testing.T) {
	first := New(1, 120, 50, "/events", nil)
	if first.PrevURL != "" || first.NextURL == "" {
		t.Errorf("first page links: prev=%q next=%q", first.PrevURL, first.NextURL)
	}
	last := New(3, 120, 50, "/events", nil)
	if last.NextURL != "" || last.PrevURL == "" {
		t.Errorf("last page links: prev=%q next=%q", last.PrevURL, last.NextURL)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		items   int64
		perPage int
		want    int
	}{
		{0, 50, 1},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.items, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.items, tt.perPage, got, tt.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := map[string]int{
		"/events":          1,
		"/events?page=3":   3,
		"/events?page=0":   1,
		"/events?page=-2":  1,
		"/events?page=abc": 1,
	}
	for target, want := range tests {
		r := httptest.NewRequest("GET", target, nil)
		if got := ParsePage(r); got != want {
			t.Errorf("ParsePage(%s) = %d, want %d", target, got, want)
		}
	}
}
