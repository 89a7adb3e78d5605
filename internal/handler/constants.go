// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "github.com/olegiv/medlem-go/internal/middleware"

// Route names. The gates and the URL builder refer to routes by name.
const (
	NameHome                  = "home"
	NameShowLogin             = "show-login"
	NameLogin                 = "login"
	NameLogout                = "logout"
	NameShowRegister          = "show-register"
	NameRegister              = "register"
	NameRegisterActivate      = "register-activate"
	NameShowRequestPassword   = "show-request-password"
	NameHandleRequestPassword = "handle-request-password"
	NameShowResetPassword     = "show-reset-password"
	NameResetPassword         = "reset-password"
	NameTechError             = "tech-error"
	NameGitHubWebhook         = "github-webhook"
	NameHealth                = "health"
	NameMetrics               = "metrics"
	NameStatic                = "static"

	NameUserHome = "user-home"

	NameMemberList      = "medlem-list"
	NameMemberNew       = "medlem-new"
	NameMemberCreate    = "medlem-create"
	NameMemberEdit      = "medlem-edit"
	NameMemberSave      = "medlem-save"
	NameMemberDelete    = "medlem-delete"
	NameMemberImport    = "medlem-import"
	NameMemberImportRun = "medlem-import-run"

	NamePaymentList   = "betalning-list"
	NamePaymentMember = "betalning-medlem"
	NamePaymentCreate = "betalning-create"
	NamePaymentDelete = "betalning-delete"

	NameSailingList          = "segling-list"
	NameSailingShowCreate    = "segling-show-create"
	NameSailingCreate        = "segling-create"
	NameSailingEdit          = "segling-edit"
	NameSailingSave          = "segling-save"
	NameSailingDelete        = "segling-delete"
	NameSailingMemberAdd     = "segling-medlem-add"
	NameSailingMemberDelete  = "segling-medlem-delete"
	NameRoleList             = "roll-list"
	NameRoleMembers          = "roll-medlemmar"
	NameReportShow           = "rapport-show"
	NameReportPayment        = "rapport-betalning"
	NameReportEmail          = "rapport-email"
	NameEventList            = "event-list"
)

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	RouteLogin          = "/login"
	RouteLogout         = "/logout"
	RouteRegister       = "/register"
	RouteRegisterToken  = RouteRegister + "/{token}"
	RoutePassword       = "/password"
	RoutePasswordReset  = RoutePassword + "/reset"
	RoutePasswordToken  = RoutePasswordReset + "/{token}"
	RouteTechError      = "/tech-error"
	RouteGitHubWebhook  = "/webhooks/github"
	RouteHealth         = "/health"
	RouteMetrics        = "/metrics"
	RouteStatic         = "/static/*"
	RouteUser           = "/user"
	RouteMembers        = "/medlem"
	RouteMembersID      = RouteMembers + RouteParamID
	RouteMembersDelete  = RouteMembers + "/delete"
	RouteMembersImport  = RouteMembers + "/import"
	RoutePayments       = "/betalning"
	RoutePaymentsMember = RoutePayments + "/medlem/{id}"
	RoutePaymentsDelete = RoutePayments + "/delete/{id}"
	RouteSailings       = "/segling"
	RouteSailingsID     = RouteSailings + RouteParamID
	RouteSailingsSave   = RouteSailings + "/save"
	RouteSailingsDelete = RouteSailings + "/delete/{id}"
	RouteSailingsMember = RouteSailings + "/medlem"
	RouteSailingsMemDel = RouteSailingsMember + "/delete"
	RouteRoles          = "/roller"
	RouteRolesMembers   = RouteRoles + "/{id}/medlem"
	RouteReports        = "/rapporter"
	RouteReportsPayment = RouteReports + "/betalning"
	RouteReportsEmail   = RouteReports + "/email"
	RouteEvents         = "/events"
)

// Redirect targets used after form posts.
const (
	redirectLogin    = RouteLogin
	redirectUser     = RouteUser
	redirectMembers  = RouteMembers
	redirectSailings = RouteSailings
	redirectReports  = RouteReports
	redirectImport   = RouteMembersImport
)

// maxImportSize bounds the uploaded CSV file. The CSRF gate already caps
// the whole body at the same size.
const maxImportSize = middleware.MaxFormBody
