// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/util"
)

// SailingsHandler handles sailings and their crews.
type SailingsHandler struct {
	renderer *render.Renderer
	sailings *service.SailingService
}

// NewSailingsHandler creates a new SailingsHandler.
func NewSailingsHandler(renderer *render.Renderer, sailings *service.SailingService) *SailingsHandler {
	return &SailingsHandler{renderer: renderer, sailings: sailings}
}

// SailingFormData holds data for the new sailing form.
type SailingFormData struct {
	Input service.SailingInput
}

// List renders all sailings with participants.
func (h *SailingsHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	sailings, err := h.sailings.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list sailings", "error", err)
		return
	}
	h.renderer.RenderPage(w, r, "admin/sailings", render.TemplateData{
		Title: i18n.T(lang, "sailing.list_title"),
		Data:  sailings,
	})
}

// NewForm renders the empty sailing form.
func (h *SailingsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderNewForm(w, r, http.StatusOK, SailingFormData{}, nil)
}

// Create handles the new sailing form and continues to its edit page.
func (h *SailingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, RouteSailings+RouteSuffixNew) {
		return
	}
	in := sailingInputFromForm(r)

	sl, err := h.sailings.Create(r.Context(), in)
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			h.renderNewForm(w, r, http.StatusUnprocessableEntity, SailingFormData{Input: in}, fieldErrors(lang, ve))
			return
		}
		logAndInternalError(w, "failed to create sailing", "error", err)
		return
	}

	slog.Info("sailing created", "sailing_id", sl.ID)
	flashSuccess(w, r, h.renderer, fmt.Sprintf("%s/%d", RouteSailings, sl.ID), i18n.T(lang, "msg.created", sl.Crew))
}

// Edit renders a sailing with its crew and the add-participant choices.
func (h *SailingsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		flashError(w, r, h.renderer, redirectSailings, i18n.T(lang, "error.not_found"))
		return
	}
	edit, ok := loadOrRedirect(w, r, h.renderer, redirectSailings, "sailing", id,
		func(id int64) (service.SailingEdit, error) { return h.sailings.Get(r.Context(), id) })
	if !ok {
		return
	}
	h.renderer.RenderPage(w, r, "admin/sailing_edit", render.TemplateData{
		Title: i18n.T(lang, "sailing.edit_title"),
		Data:  edit,
	})
}

// Save handles the edit form. The sailing id is the form field id.
func (h *SailingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, redirectSailings) {
		return
	}
	id, ok := util.ParseID(r.FormValue("id"))
	if !ok {
		flashError(w, r, h.renderer, redirectSailings, i18n.T(lang, "error.not_found"))
		return
	}
	editURL := fmt.Sprintf("%s/%d", RouteSailings, id)

	err := h.sailings.Update(r.Context(), id, sailingInputFromForm(r))
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		flashError(w, r, h.renderer, redirectSailings, i18n.T(lang, "error.not_found"))
		return
	default:
		if ve, ok := service.AsValidationError(err); ok {
			flashError(w, r, h.renderer, editURL, firstFieldError(lang, ve))
			return
		}
		logAndInternalError(w, "failed to update sailing", "error", err, "sailing_id", id)
		return
	}

	slog.Info("sailing updated", "sailing_id", id)
	flashSuccess(w, r, h.renderer, editURL, i18n.T(lang, "msg.saved", i18n.T(lang, "sailing.entity")))
}

// Delete removes the sailing in the path. Answers JSON.
func (h *SailingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "error.invalid_id"))
		return
	}
	if err := h.sailings.Delete(r.Context(), id); err != nil {
		serviceErrorJSON(w, r, "failed to delete sailing", err)
		return
	}
	slog.Info("sailing deleted", "sailing_id", id)
	writeJSONSuccess(w, map[string]any{
		"message": i18n.T(lang, "msg.deleted", i18n.T(lang, "sailing.entity")),
	})
}

// participantRequest is the add/remove participant body. Ids may be sent
// as numbers or strings.
type participantRequest struct {
	SailingID flexID `json:"segling_id"`
	MemberID  flexID `json:"segling_person"`
	RoleID    flexID `json:"segling_roll"`

	// MemberIDAlt is the member field name used by the remove call.
	MemberIDAlt flexID `json:"medlem_id"`
}

func (p participantRequest) member() flexID {
	if p.MemberID != "" {
		return p.MemberID
	}
	return p.MemberIDAlt
}

// AddParticipant puts a member on a sailing. Answers JSON.
func (h *SailingsHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	req, ok := readParticipant(w, r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "auth.invalid_form_data"))
		return
	}
	sailingID, ok1 := util.ParseID(req.SailingID.String())
	memberID, ok2 := util.ParseID(req.member().String())
	if !ok1 || !ok2 {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "error.invalid_id"))
		return
	}
	roleID := util.ParseNullInt64Positive(req.RoleID.String())

	if err := h.sailings.AddParticipant(r.Context(), sailingID, memberID, roleID); err != nil {
		serviceErrorJSON(w, r, "failed to add participant", err)
		return
	}
	slog.Info("participant added", "sailing_id", sailingID, "member_id", memberID, "role_id", roleID.Int64)
	writeJSONSuccess(w, map[string]any{
		"message": i18n.T(lang, "sailing.participant_added"),
	})
}

// RemoveParticipant takes a member off a sailing. Answers JSON.
func (h *SailingsHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	req, ok := readParticipant(w, r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "auth.invalid_form_data"))
		return
	}
	sailingID, ok1 := util.ParseID(req.SailingID.String())
	memberID, ok2 := util.ParseID(req.member().String())
	if !ok1 || !ok2 {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "error.invalid_id"))
		return
	}

	if err := h.sailings.RemoveParticipant(r.Context(), sailingID, memberID); err != nil {
		serviceErrorJSON(w, r, "failed to remove participant", err)
		return
	}
	slog.Info("participant removed", "sailing_id", sailingID, "member_id", memberID)
	writeJSONSuccess(w, map[string]any{
		"message": i18n.T(lang, "sailing.participant_removed"),
	})
}

func readParticipant(w http.ResponseWriter, r *http.Request) (participantRequest, bool) {
	var req participantRequest
	if isJSON(r) {
		return req, decodeJSON(w, r, &req) == nil
	}
	if err := r.ParseForm(); err != nil {
		return req, false
	}
	req.SailingID = flexID(r.FormValue("segling_id"))
	req.MemberID = flexID(r.FormValue("segling_person"))
	req.RoleID = flexID(r.FormValue("segling_roll"))
	req.MemberIDAlt = flexID(r.FormValue("medlem_id"))
	return req, true
}

func (h *SailingsHandler) renderNewForm(w http.ResponseWriter, r *http.Request, status int, data SailingFormData, errs map[string]string) {
	lang := middleware.GetLang(r)
	if err := h.renderer.RenderStatus(w, r, status, "admin/sailing_form", render.TemplateData{
		Title:  i18n.T(lang, "sailing.new_title"),
		Data:   data,
		Errors: errs,
	}); err != nil {
		logAndInternalError(w, "failed to render sailing form", "error", err)
	}
}

func sailingInputFromForm(r *http.Request) service.SailingInput {
	return service.SailingInput{
		StartDate: r.FormValue("startdatum"),
		EndDate:   r.FormValue("slutdatum"),
		Crew:      r.FormValue("skeppslag"),
		Comment:   r.FormValue("kommentar"),
	}
}

// firstFieldError returns one translated message for a flash.
func firstFieldError(lang string, ve *service.ValidationError) string {
	for _, field := range []string{"startdatum", "slutdatum", "skeppslag", "kommentar"} {
		if key, ok := ve.Fields[field]; ok {
			return i18n.T(lang, key)
		}
	}
	return i18n.T(lang, "validation.failed")
}
