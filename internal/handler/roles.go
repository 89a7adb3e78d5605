// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// RolesHandler handles the role pages.
type RolesHandler struct {
	renderer *render.Renderer
	roles    *service.RoleService
}

// NewRolesHandler creates a new RolesHandler.
func NewRolesHandler(renderer *render.Renderer, roles *service.RoleService) *RolesHandler {
	return &RolesHandler{renderer: renderer, roles: roles}
}

// roleMember is one entry of the role members response.
type roleMember struct {
	ID        int64  `json:"id"`
	FirstName string `json:"fornamn"`
	LastName  string `json:"efternamn"`
}

// List renders all roles.
func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	roles, err := h.roles.List(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list roles", "error", err)
		return
	}
	h.renderer.RenderPage(w, r, "admin/roles", render.TemplateData{
		Title: i18n.T(lang, "role.list_title"),
		Data:  roles,
	})
}

// Members answers the members of the role in the path as JSON.
func (h *RolesHandler) Members(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	id, ok := util.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "error.invalid_id"))
		return
	}

	type roleWithMembers struct {
		role    store.Role
		members []store.MemberSummary
	}
	res, ok := loadOrJSONError(w, r, "role", id, func(id int64) (roleWithMembers, error) {
		role, members, err := h.roles.Members(r.Context(), id)
		return roleWithMembers{role: role, members: members}, err
	})
	if !ok {
		return
	}

	out := make([]roleMember, len(res.members))
	for i, m := range res.members {
		out[i] = roleMember{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName}
	}
	writeJSONSuccess(w, map[string]any{
		"role":    res.role.Name,
		"members": out,
	})
}
