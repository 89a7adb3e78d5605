// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/medlem-go/internal/route"
)

// Handlers collects everything the route table dispatches to.
type Handlers struct {
	Pages    *PagesHandler
	Auth     *AuthHandler
	Members  *MembersHandler
	Payments *PaymentsHandler
	Sailings *SailingsHandler
	Roles    *RolesHandler
	Reports  *ReportsHandler
	Events   *EventsHandler
	Health   *HealthHandler
	Webhooks *WebhooksHandler

	// Static serves /static/*. Optional.
	Static http.Handler
	// Metrics serves /metrics. The route is left out when nil.
	Metrics http.Handler

	// LoginGuard wraps the login POST (IP rate limit). Optional.
	LoginGuard func(http.Handler) http.Handler
	// PublicLimit wraps the other public form posts. Optional.
	PublicLimit func(http.Handler) http.Handler
}

// Routes returns the route table entries for h.
func Routes(h Handlers) []route.Route {
	login := wrap(h.Auth.Login, h.LoginGuard)
	limited := func(fn http.HandlerFunc) http.HandlerFunc { return wrap(fn, h.PublicLimit) }

	routes := []route.Route{
		{Name: NameHome, Method: http.MethodGet, Pattern: RouteRoot, Tier: route.Public, Handler: h.Pages.Home},
		{Name: NameShowLogin, Method: http.MethodGet, Pattern: RouteLogin, Tier: route.Public, Handler: h.Auth.LoginForm},
		{Name: NameLogin, Method: http.MethodPost, Pattern: RouteLogin, Tier: route.Public, Handler: login},
		{Name: NameLogout, Method: http.MethodGet, Pattern: RouteLogout, Tier: route.RequiresLogin, Handler: h.Auth.Logout},
		{Name: NameShowRegister, Method: http.MethodGet, Pattern: RouteRegister, Tier: route.Public, Handler: h.Auth.RegisterForm},
		{Name: NameRegister, Method: http.MethodPost, Pattern: RouteRegister, Tier: route.Public, Handler: limited(h.Auth.Register)},
		{Name: NameRegisterActivate, Method: http.MethodGet, Pattern: RouteRegisterToken, Tier: route.Public, Handler: h.Auth.Activate},
		{Name: NameShowRequestPassword, Method: http.MethodGet, Pattern: RoutePassword, Tier: route.Public, Handler: h.Auth.RequestPasswordForm},
		{Name: NameHandleRequestPassword, Method: http.MethodPost, Pattern: RoutePassword, Tier: route.Public, Handler: limited(h.Auth.RequestPassword)},
		{Name: NameShowResetPassword, Method: http.MethodGet, Pattern: RoutePasswordToken, Tier: route.Public, Handler: h.Auth.ResetPasswordForm},
		{Name: NameResetPassword, Method: http.MethodPost, Pattern: RoutePasswordReset, Tier: route.Public, Handler: limited(h.Auth.ResetPassword)},
		{Name: NameTechError, Method: http.MethodGet, Pattern: RouteTechError, Tier: route.Public, Handler: h.Pages.TechError},
		{Name: route.NotFound, Tier: route.Public},
		{Name: NameGitHubWebhook, Method: http.MethodPost, Pattern: RouteGitHubWebhook, Tier: route.Public, Handler: h.Webhooks.GitHub},
		{Name: NameHealth, Method: http.MethodGet, Pattern: RouteHealth, Tier: route.Public, Handler: h.Health.Health},

		{Name: NameUserHome, Method: http.MethodGet, Pattern: RouteUser, Tier: route.RequiresLogin, Handler: h.Pages.UserHome},

		{Name: NameMemberList, Method: http.MethodGet, Pattern: RouteMembers, Tier: route.RequiresAdmin, Handler: h.Members.List},
		{Name: NameMemberNew, Method: http.MethodGet, Pattern: RouteMembers + RouteSuffixNew, Tier: route.RequiresAdmin, Handler: h.Members.NewForm},
		{Name: NameMemberCreate, Method: http.MethodPost, Pattern: RouteMembers + RouteSuffixNew, Tier: route.RequiresAdmin, Handler: h.Members.Create},
		{Name: NameMemberEdit, Method: http.MethodGet, Pattern: RouteMembersID, Tier: route.RequiresAdmin, Handler: h.Members.EditForm},
		{Name: NameMemberSave, Method: http.MethodPost, Pattern: RouteMembersID, Tier: route.RequiresAdmin, Handler: h.Members.Save},
		{Name: NameMemberDelete, Method: http.MethodPost, Pattern: RouteMembersDelete, Tier: route.RequiresAdmin, Handler: h.Members.Delete},
		{Name: NameMemberImport, Method: http.MethodGet, Pattern: RouteMembersImport, Tier: route.RequiresAdmin, Handler: h.Members.ImportForm},
		{Name: NameMemberImportRun, Method: http.MethodPost, Pattern: RouteMembersImport, Tier: route.RequiresAdmin, Handler: h.Members.Import},

		{Name: NamePaymentList, Method: http.MethodGet, Pattern: RoutePayments, Tier: route.RequiresAdmin, Handler: h.Payments.List},
		{Name: NamePaymentMember, Method: http.MethodGet, Pattern: RoutePaymentsMember, Tier: route.RequiresAdmin, Handler: h.Payments.ListForMember},
		{Name: NamePaymentCreate, Method: http.MethodPost, Pattern: RoutePaymentsMember, Tier: route.RequiresAdmin, Handler: h.Payments.Create},
		{Name: NamePaymentDelete, Method: http.MethodPost, Pattern: RoutePaymentsDelete, Tier: route.RequiresAdmin, Handler: h.Payments.Delete},

		{Name: NameSailingList, Method: http.MethodGet, Pattern: RouteSailings, Tier: route.RequiresAdmin, Handler: h.Sailings.List},
		{Name: NameSailingShowCreate, Method: http.MethodGet, Pattern: RouteSailings + RouteSuffixNew, Tier: route.RequiresAdmin, Handler: h.Sailings.NewForm},
		{Name: NameSailingCreate, Method: http.MethodPost, Pattern: RouteSailings + RouteSuffixNew, Tier: route.RequiresAdmin, Handler: h.Sailings.Create},
		{Name: NameSailingEdit, Method: http.MethodGet, Pattern: RouteSailingsID, Tier: route.RequiresAdmin, Handler: h.Sailings.Edit},
		{Name: NameSailingSave, Method: http.MethodPost, Pattern: RouteSailingsSave, Tier: route.RequiresAdmin, Handler: h.Sailings.Save},
		{Name: NameSailingDelete, Method: http.MethodPost, Pattern: RouteSailingsDelete, Tier: route.RequiresAdmin, Handler: h.Sailings.Delete},
		{Name: NameSailingMemberAdd, Method: http.MethodPost, Pattern: RouteSailingsMember, Tier: route.RequiresAdmin, Handler: h.Sailings.AddParticipant},
		{Name: NameSailingMemberDelete, Method: http.MethodPost, Pattern: RouteSailingsMemDel, Tier: route.RequiresAdmin, Handler: h.Sailings.RemoveParticipant},

		{Name: NameRoleList, Method: http.MethodGet, Pattern: RouteRoles, Tier: route.RequiresAdmin, Handler: h.Roles.List},
		{Name: NameRoleMembers, Method: http.MethodGet, Pattern: RouteRolesMembers, Tier: route.RequiresAdmin, Handler: h.Roles.Members},

		{Name: NameReportShow, Method: http.MethodGet, Pattern: RouteReports, Tier: route.RequiresAdmin, Handler: h.Reports.Show},
		{Name: NameReportPayment, Method: http.MethodPost, Pattern: RouteReportsPayment, Tier: route.RequiresAdmin, Handler: h.Reports.Unpaid},
		{Name: NameReportEmail, Method: http.MethodGet, Pattern: RouteReportsEmail, Tier: route.RequiresAdmin, Handler: h.Reports.EmailList},

		{Name: NameEventList, Method: http.MethodGet, Pattern: RouteEvents, Tier: route.RequiresAdmin, Handler: h.Events.List},
	}

	if h.Static != nil {
		routes = append(routes, route.Route{
			Name: NameStatic, Method: http.MethodGet, Pattern: RouteStatic, Tier: route.Public, Handler: h.Static.ServeHTTP,
		})
	}
	if h.Metrics != nil {
		routes = append(routes, route.Route{
			Name: NameMetrics, Method: http.MethodGet, Pattern: RouteMetrics, Tier: route.Public, Handler: h.Metrics.ServeHTTP,
		})
	}
	return routes
}

// NewTable builds and validates the route table for h.
func NewTable(h Handlers) (*route.Table, error) {
	return route.NewTable(Routes(h)...)
}

func wrap(fn http.HandlerFunc, mw func(http.Handler) http.Handler) http.HandlerFunc {
	if mw == nil {
		return fn
	}
	return mw(fn).ServeHTTP
}
