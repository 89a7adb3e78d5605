// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/session"
	"github.com/olegiv/medlem-go/internal/store"
)

// PagesHandler serves the start pages and the error pages.
type PagesHandler struct {
	renderer *render.Renderer
	session  session.Session
	members  *service.MemberService
	payments *service.PaymentService
	reports  *service.ReportService
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(renderer *render.Renderer, sess session.Session, members *service.MemberService,
	payments *service.PaymentService, reports *service.ReportService) *PagesHandler {
	return &PagesHandler{
		renderer: renderer,
		session:  sess,
		members:  members,
		payments: payments,
		reports:  reports,
	}
}

// DashboardData is the admin start page.
type DashboardData struct {
	MemberCount int
	UnpaidCount int
	Year        int64
}

// UserHomeData is the member start page.
type UserHomeData struct {
	Member   store.Member
	Payments []store.Payment
}

// Home sends visitors to login, members to their page and shows admins
// the dashboard.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch {
	case !h.session.IsLoggedIn(ctx):
		http.Redirect(w, r, redirectLogin, http.StatusFound)
		return
	case !h.session.IsAdmin(ctx):
		http.Redirect(w, r, redirectUser, http.StatusFound)
		return
	}

	members, err := h.members.List(ctx)
	if err != nil {
		logAndInternalError(w, "failed to list members", "error", err)
		return
	}
	unpaid, err := h.reports.Unpaid(ctx, 1)
	if err != nil {
		logAndInternalError(w, "failed to build unpaid report", "error", err)
		return
	}

	lang := middleware.GetLang(r)
	h.renderer.RenderPage(w, r, "admin/home", render.TemplateData{
		Title: i18n.T(lang, "nav.home"),
		Data: DashboardData{
			MemberCount: len(members),
			UnpaidCount: len(unpaid.Members),
			Year:        unpaid.ToYear,
		},
	})
}

// UserHome shows the logged-in member their details and payments.
func (h *PagesHandler) UserHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.GetLang(r)

	id := h.session.GetInt64(ctx, session.KeyUserID)
	member, payments, err := h.payments.ListForMember(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The member was deleted while logged in.
			_ = h.session.Destroy(ctx)
			http.Redirect(w, r, redirectLogin, http.StatusFound)
			return
		}
		logAndInternalError(w, "failed to load member page", "error", err, "member_id", id)
		return
	}

	h.renderer.RenderPage(w, r, "user/home", render.TemplateData{
		Title: i18n.T(lang, "user.title"),
		Data:  UserHomeData{Member: member, Payments: payments},
	})
}

// TechError renders the technical error page that CSRF failures land on.
func (h *PagesHandler) TechError(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	h.renderer.RenderPage(w, r, "errors/tech", render.TemplateData{
		Title: i18n.T(lang, "error.tech_title"),
	})
}

// NotFound renders the 404 page.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if middleware.IsAJAX(r) {
		writeJSONError(w, http.StatusNotFound, i18n.T(lang, "error.not_found"))
		return
	}
	err := h.renderer.RenderStatus(w, r, http.StatusNotFound, "errors/404", render.TemplateData{
		Title: i18n.T(lang, "error.not_found_title"),
	})
	if err != nil {
		logAndHTTPError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound,
			"failed to render 404 page", "error", err)
	}
}
