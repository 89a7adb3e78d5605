// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pager builds page links for the admin list views.
package pager

import (
	"net/http"
	"net/url"
	"strconv"
)

// window is the number of page links shown around the current page.
const window = 5

// Pager holds the links for one paginated list.
type Pager struct {
	Current    int
	TotalPages int
	TotalItems int64
	PerPage    int
	PrevURL    string // empty on the first page
	NextURL    string // empty on the last page
	Pages      []Page
}

// Page is a numbered link, or a gap when Ellipsis is set.
type Page struct {
	Number   int
	URL      string
	Current  bool
	Ellipsis bool
}

// Show reports whether there is more than one page.
func (p Pager) Show() bool {
	return p.TotalPages > 1
}

// New builds a Pager. The page parameter of query is replaced; other
// non-empty parameters (the list filters) are kept on every link.
func New(current int, totalItems int64, perPage int, baseURL string, query url.Values) Pager {
	total := TotalPages(totalItems, perPage)
	current = Clamp(current, total)

	params := make(url.Values)
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			params[k] = v
		}
	}
	link := func(n int) string {
		params.Set("page", strconv.Itoa(n))
		return baseURL + "?" + params.Encode()
	}

	p := Pager{
		Current:    current,
		TotalPages: total,
		TotalItems: totalItems,
		PerPage:    perPage,
	}
	if current > 1 {
		p.PrevURL = link(current - 1)
	}
	if current < total {
		p.NextURL = link(current + 1)
	}

	start := current - window/2
	end := current + window/2
	if start < 1 {
		start, end = 1, window
	}
	if end > total {
		end = total
		start = max(end-window+1, 1)
	}

	if start > 1 {
		p.Pages = append(p.Pages, Page{Number: 1, URL: link(1)})
		if start > 2 {
			p.Pages = append(p.Pages, Page{Ellipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, Page{Number: i, URL: link(i), Current: i == current})
	}
	if end < total {
		if end < total-1 {
			p.Pages = append(p.Pages, Page{Ellipsis: true})
		}
		p.Pages = append(p.Pages, Page{Number: total, URL: link(total)})
	}
	return p
}

// TotalPages returns the page count, at least 1.
func TotalPages(totalItems int64, perPage int) int {
	if perPage <= 0 || totalItems <= 0 {
		return 1
	}
	return int((totalItems + int64(perPage) - 1) / int64(perPage))
}

// Clamp keeps page within [1, total].
func Clamp(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// ParsePage reads the page query parameter. Missing or invalid values give 1.
func ParsePage(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
