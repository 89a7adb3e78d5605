// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// ReportsHandler handles the admin reports.
type ReportsHandler struct {
	renderer *render.Renderer
	reports  *service.ReportService
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(renderer *render.Renderer, reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{renderer: renderer, reports: reports}
}

// ReportsPageData lists the report choices.
type ReportsPageData struct {
	YearChoices []int
}

// EmailListData is the communication mail list.
type EmailListData struct {
	Members []store.Member
	// Joined is every address separated for pasting into a mail client.
	Joined string
}

// Show renders the report menu.
func (h *ReportsHandler) Show(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	choices := make([]int, 0, service.MaxUnpaidYears)
	for y := 1; y <= service.MaxUnpaidYears; y++ {
		choices = append(choices, y)
	}
	h.renderer.RenderPage(w, r, "admin/reports", render.TemplateData{
		Title: i18n.T(lang, "report.title"),
		Data:  ReportsPageData{YearChoices: choices},
	})
}

// Unpaid renders the members without payment in the chosen period.
func (h *ReportsHandler) Unpaid(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, redirectReports) {
		return
	}
	years, err := strconv.Atoi(strings.TrimSpace(r.FormValue("ar")))
	if err != nil {
		flashError(w, r, h.renderer, redirectReports, i18n.T(lang, "validation.invalid"))
		return
	}

	report, err := h.reports.Unpaid(r.Context(), years)
	if err != nil {
		if _, ok := service.AsValidationError(err); ok {
			flashError(w, r, h.renderer, redirectReports, i18n.T(lang, "validation.invalid"))
			return
		}
		logAndInternalError(w, "failed to build unpaid report", "error", err)
		return
	}

	h.renderer.RenderPage(w, r, "admin/unpaid", render.TemplateData{
		Title: i18n.T(lang, "report.unpaid_title"),
		Data:  report,
	})
}

// EmailList renders the addresses of members who accept communication.
func (h *ReportsHandler) EmailList(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	members, err := h.reports.Communication(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to build email list", "error", err)
		return
	}

	addrs := make([]string, 0, len(members))
	for _, m := range members {
		if e := util.NullStringValue(m.Email); e != "" {
			addrs = append(addrs, e)
		}
	}
	h.renderer.RenderPage(w, r, "admin/email_list", render.TemplateData{
		Title: i18n.T(lang, "report.email_title"),
		Data:  EmailListData{Members: members, Joined: strings.Join(addrs, "; ")},
	})
}
