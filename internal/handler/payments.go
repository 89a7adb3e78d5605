// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// PaymentsHandler handles membership payments.
type PaymentsHandler struct {
	renderer *render.Renderer
	payments *service.PaymentService
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(renderer *render.Renderer, payments *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{renderer: renderer, payments: payments}
}

// MemberPaymentsData is the payment page of one member.
type MemberPaymentsData struct {
	Member   store.Member
	Payments []store.Payment
	Total    float64
}

// List renders every payment.
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	payments, err := h.payments.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list payments", "error", err)
		return
	}
	h.renderer.RenderPage(w, r, "admin/payments", render.TemplateData{
		Title: i18n.T(lang, "payment.list_title"),
		Data:  payments,
	})
}

// ListForMember renders one member's payments with the payment form.
func (h *PaymentsHandler) ListForMember(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		flashError(w, r, h.renderer, RoutePayments, i18n.T(lang, "error.not_found"))
		return
	}

	data, ok := loadOrRedirect(w, r, h.renderer, RoutePayments, "member", id,
		func(id int64) (MemberPaymentsData, error) {
			m, payments, err := h.payments.ListForMember(r.Context(), id)
			return MemberPaymentsData{Member: m, Payments: payments}, err
		})
	if !ok {
		return
	}
	for _, p := range data.Payments {
		data.Total += p.Amount
	}

	h.renderer.RenderPage(w, r, "admin/member_payments", render.TemplateData{
		Title: i18n.T(lang, "payment.member_title", data.Member.FullName()),
		Data:  data,
	})
}

// Create records a payment for the member in the path. Answers JSON.
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "error.invalid_id"))
		return
	}

	in, ok := paymentInput(w, r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "auth.invalid_form_data"))
		return
	}

	res, err := h.payments.Create(r.Context(), id, in)
	if err != nil {
		serviceErrorJSON(w, r, "failed to create payment", err)
		return
	}

	slog.Info("payment created", "payment_id", res.Payment.ID, "member_id", id, "welcome_sent", res.WelcomeSent)
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"message":      i18n.T(lang, "payment.created"),
		"id":           res.Payment.ID,
		"welcome_sent": res.WelcomeSent,
	})
}

// Delete removes the payment in the path. Answers JSON.
func (h *PaymentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "error.invalid_id"))
		return
	}

	p, err := h.payments.Delete(r.Context(), id)
	if err != nil {
		serviceErrorJSON(w, r, "failed to delete payment", err)
		return
	}

	slog.Info("payment deleted", "payment_id", id, "member_id", p.MemberID)
	writeJSONSuccess(w, map[string]any{
		"message": i18n.T(lang, "msg.deleted", i18n.T(lang, "payment.entity")),
	})
}

// paymentInput reads the payment from a JSON body or a form.
func paymentInput(w http.ResponseWriter, r *http.Request) (service.PaymentInput, bool) {
	var in service.PaymentInput
	if isJSON(r) {
		if err := decodeJSON(w, r, &in); err != nil {
			return in, false
		}
		return in, true
	}
	if err := r.ParseForm(); err != nil {
		return in, false
	}
	// Swedish users type decimal commas.
	amount, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(r.FormValue("summa")), ",", ".", 1), 64)
	if err != nil {
		return in, false
	}
	year, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("ar")), 10, 64)
	if err != nil {
		return in, false
	}
	in.Amount = amount
	in.Year = year
	in.Date = r.FormValue("datum")
	in.Comment = r.FormValue("kommentar")
	return in, true
}
