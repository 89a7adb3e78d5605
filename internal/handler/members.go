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
	"github.com/olegiv/medlem-go/internal/importer"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// MembersHandler handles the member admin pages and the CSV import.
type MembersHandler struct {
	renderer *render.Renderer
	members  *service.MemberService
	roles    *service.RoleService
	importer *importer.Importer
}

// NewMembersHandler creates a new MembersHandler.
func NewMembersHandler(renderer *render.Renderer, members *service.MemberService,
	roles *service.RoleService, imp *importer.Importer) *MembersHandler {
	return &MembersHandler{
		renderer: renderer,
		members:  members,
		roles:    roles,
		importer: imp,
	}
}

// MemberFormData holds data for the member create and edit form.
type MemberFormData struct {
	ID       int64
	IsNew    bool
	Input    service.MemberInput
	Roles    []store.Role
	Selected map[int64]bool
	Payments []store.Payment
}

// List renders all members.
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	members, err := h.members.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list members", "error", err)
		return
	}
	h.renderer.RenderPage(w, r, "admin/members", render.TemplateData{
		Title: i18n.T(lang, "member.list_title"),
		Data:  members,
	})
}

// NewForm renders the empty member form.
func (h *MembersHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, MemberFormData{IsNew: true, Selected: map[int64]bool{}}, nil)
}

// Create handles the new member form.
func (h *MembersHandler) Create(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, RouteMembers+RouteSuffixNew) {
		return
	}
	in := memberInputFromForm(r)

	m, err := h.members.Create(r.Context(), in)
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			h.renderForm(w, r, http.StatusUnprocessableEntity, formFromInput(0, true, in), fieldErrors(lang, ve))
			return
		}
		logAndInternalError(w, "failed to create member", "error", err)
		return
	}

	slog.Info("member created", "member_id", m.ID)
	flashSuccess(w, r, h.renderer, redirectMembers, i18n.T(lang, "msg.created", m.FullName()))
}

// EditForm renders the form for an existing member.
func (h *MembersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		flashError(w, r, h.renderer, redirectMembers, i18n.T(middleware.GetLang(r), "error.not_found"))
		return
	}
	detail, ok := loadOrRedirect(w, r, h.renderer, redirectMembers, "member", id,
		func(id int64) (service.MemberDetail, error) { return h.members.Get(r.Context(), id) })
	if !ok {
		return
	}

	data := formFromInput(id, false, inputFromMember(detail.Member))
	for _, role := range detail.Roles {
		data.Selected[role.ID] = true
	}
	data.Payments = detail.Payments
	h.renderForm(w, r, http.StatusOK, data, nil)
}

// Save handles the edit form.
func (h *MembersHandler) Save(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		flashError(w, r, h.renderer, redirectMembers, i18n.T(lang, "error.not_found"))
		return
	}
	editURL := fmt.Sprintf("%s/%d", RouteMembers, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}
	in := memberInputFromForm(r)

	err := h.members.Update(r.Context(), id, in)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		flashError(w, r, h.renderer, redirectMembers, i18n.T(lang, "error.not_found"))
		return
	default:
		if ve, ok := service.AsValidationError(err); ok {
			h.renderForm(w, r, http.StatusUnprocessableEntity, formFromInput(id, false, in), fieldErrors(lang, ve))
			return
		}
		logAndInternalError(w, "failed to update member", "error", err, "member_id", id)
		return
	}

	slog.Info("member updated", "member_id", id)
	flashSuccess(w, r, h.renderer, redirectMembers, i18n.T(lang, "msg.saved", in.FirstName+" "+in.LastName))
}

// Delete removes the member named by the form field id.
func (h *MembersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, redirectMembers) {
		return
	}
	id, ok := util.ParseID(r.FormValue("id"))
	if !ok {
		flashError(w, r, h.renderer, redirectMembers, i18n.T(lang, "error.not_found"))
		return
	}

	if err := h.members.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, redirectMembers, i18n.T(lang, "error.not_found"))
			return
		}
		slog.Error("failed to delete member", "error", err, "member_id", id)
		flashError(w, r, h.renderer, redirectMembers, i18n.T(lang, "error.generic"))
		return
	}

	slog.Info("member deleted", "member_id", id)
	flashSuccess(w, r, h.renderer, redirectMembers, i18n.T(lang, "msg.deleted", i18n.T(lang, "member.entity")))
}

// ImportForm renders the CSV upload page.
func (h *MembersHandler) ImportForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	h.renderer.RenderPage(w, r, "admin/member_import", render.TemplateData{
		Title: i18n.T(lang, "import.title"),
	})
}

// Import runs an uploaded member CSV and shows the result.
func (h *MembersHandler) Import(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		flashError(w, r, h.renderer, redirectImport, i18n.T(lang, "import.file_too_large"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		flashError(w, r, h.renderer, redirectImport, i18n.T(lang, "import.no_file"))
		return
	}
	defer func() { _ = file.Close() }()
	// The CSRF gate may have parsed the form already, bypassing the reader limit.
	if header.Size > maxImportSize {
		flashError(w, r, h.renderer, redirectImport, i18n.T(lang, "import.file_too_large"))
		return
	}

	opts := importer.DefaultImportOptions()
	opts.DryRun = util.FormBool(r.FormValue("dry_run"))
	opts.CreateRoles = util.FormBool(r.FormValue("create_roles"))

	result, err := h.importer.Import(r.Context(), file, opts)
	if err != nil {
		slog.Error("member import failed", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, redirectImport, i18n.T(lang, "import.failed"))
		return
	}

	slog.Info("member import finished",
		"batch_id", result.BatchID,
		"filename", header.Filename,
		"dry_run", result.DryRun,
		"created", result.Created,
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	h.renderer.RenderPage(w, r, "admin/member_import", render.TemplateData{
		Title: i18n.T(lang, "import.title"),
		Data:  result,
	})
}

func (h *MembersHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data MemberFormData, errs map[string]string) {
	lang := middleware.GetLang(r)
	roles, err := h.roles.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list roles", "error", err)
		return
	}
	data.Roles = roles

	title := i18n.T(lang, "member.edit_title")
	if data.IsNew {
		title = i18n.T(lang, "member.new_title")
	}
	if err := h.renderer.RenderStatus(w, r, status, "admin/member_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	}); err != nil {
		logAndInternalError(w, "failed to render member form", "error", err)
	}
}

func formFromInput(id int64, isNew bool, in service.MemberInput) MemberFormData {
	selected := make(map[int64]bool, len(in.RoleIDs))
	for _, rid := range in.RoleIDs {
		selected[rid] = true
	}
	return MemberFormData{ID: id, IsNew: isNew, Input: in, Selected: selected}
}

func memberInputFromForm(r *http.Request) service.MemberInput {
	in := service.MemberInput{
		FirstName:            r.FormValue("fornamn"),
		LastName:             r.FormValue("efternamn"),
		BirthDate:            r.FormValue("fodelsedatum"),
		Email:                r.FormValue("email"),
		Mobile:               r.FormValue("mobil"),
		Phone:                r.FormValue("telefon"),
		Address:              r.FormValue("adress"),
		PostalCode:           r.FormValue("postnummer"),
		City:                 r.FormValue("postort"),
		Comment:              r.FormValue("kommentar"),
		GDPRConsent:          util.FormBool(r.FormValue("godkant_gdpr")),
		AcceptsCommunication: util.FormBool(r.FormValue("pref_kommunikation")),
		Company:              util.FormBool(r.FormValue("foretag")),
		LifeMember:           util.FormBool(r.FormValue("standig_medlem")),
		IsAdmin:              util.FormBool(r.FormValue("is_admin")),
	}
	for _, v := range r.Form["roller"] {
		if id, ok := util.ParseID(v); ok {
			in.RoleIDs = append(in.RoleIDs, id)
		}
	}
	return in
}

func inputFromMember(m store.Member) service.MemberInput {
	return service.MemberInput{
		FirstName:            m.FirstName,
		LastName:             m.LastName,
		BirthDate:            m.BirthDate,
		Email:                util.NullStringValue(m.Email),
		Mobile:               m.Mobile,
		Phone:                m.Phone,
		Address:              m.Address,
		PostalCode:           m.PostalCode,
		City:                 m.City,
		Comment:              m.Comment,
		GDPRConsent:          m.GDPRConsent,
		AcceptsCommunication: m.AcceptsCommunication,
		Company:              m.Company,
		LifeMember:           m.LifeMember,
		IsAdmin:              m.IsAdmin,
	}
}

