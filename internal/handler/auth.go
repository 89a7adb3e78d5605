// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/medlem-go/internal/captcha"
	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/session"
)

// AuthHandler handles login, logout, registration and password reset.
type AuthHandler struct {
	renderer        *render.Renderer
	session         session.Session
	accounts        *service.AccountService
	events          *service.EventService
	loginProtection *middleware.LoginProtection
	captcha         *captcha.Turnstile
}

// NewAuthHandler creates a new AuthHandler. loginProtection and turnstile
// may be nil.
func NewAuthHandler(renderer *render.Renderer, sess session.Session, accounts *service.AccountService,
	events *service.EventService, lp *middleware.LoginProtection, turnstile *captcha.Turnstile) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		session:         sess,
		accounts:        accounts,
		events:          events,
		loginProtection: lp,
		captcha:         turnstile,
	}
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	h.renderer.RenderPage(w, r, "auth/login", render.TemplateData{
		Title: i18n.T(lang, "auth.login"),
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectLogin, i18n.T(lang, "auth.invalid_form_data"))
		return
	}

	emailAddr := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	clientIP := middleware.GetClientIP(r)

	if h.captcha != nil && !h.captcha.VerifyRequest(r, clientIP) {
		flashError(w, r, h.renderer, redirectLogin, i18n.T(lang, "captcha.failed"))
		return
	}

	if emailAddr == "" || password == "" {
		slog.Info("login with empty email or password", "ip", clientIP)
		flashError(w, r, h.renderer, redirectLogin, i18n.T(lang, "auth.invalid_credentials"))
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(emailAddr); locked {
			h.audit(r, model.EventLevelWarning, "Login attempt on locked account", nil, map[string]any{"email": emailAddr})
			flashError(w, r, h.renderer, redirectLogin, i18n.T(lang, "auth.account_locked", formatDuration(remaining)))
			return
		}
	}

	member, err := h.accounts.Authenticate(ctx, emailAddr, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slog.Error("database error during login", "error", err)
		}
		h.audit(r, model.EventLevelWarning, "Login failed", nil, map[string]any{"email": emailAddr})
		flashError(w, r, h.renderer, redirectLogin, h.failedLoginMessage(r, lang, emailAddr))
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(emailAddr)
	}

	// New session id and CSRF token before anything privileged is stored.
	if err := h.session.Renew(ctx); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.session.ClearCSRFToken(ctx)
	if _, err := h.session.CSRFToken(ctx); err != nil {
		logAndInternalError(w, "csrf token rotation error", "error", err)
		return
	}

	h.session.Set(ctx, session.KeyUserID, member.ID)
	h.session.Set(ctx, session.KeyFirstName, member.FirstName)

	target := RouteUser
	if member.IsAdmin {
		h.session.Set(ctx, session.KeyIsAdmin, true)
		target = RouteRoot
		if saved := h.session.GetString(ctx, session.KeyRedirectURL); safeRedirect(saved) {
			target = saved
		}
	} else {
		h.session.Set(ctx, session.KeyIsAdmin, false)
	}
	h.session.Remove(ctx, session.KeyRedirectURL)

	slog.Info("member logged in", "member_id", member.ID, "admin", member.IsAdmin)
	h.audit(r, model.EventLevelInfo, "Member logged in", &member.ID, map[string]any{"email": emailAddr})

	flashAndRedirect(w, r, h.renderer, target, i18n.T(lang, "auth.welcome_back", member.FirstName), session.FlashSuccess)
}

// failedLoginMessage records the failure and picks the message: a lockout
// notice, the remaining attempts when few are left, or the generic text.
func (h *AuthHandler) failedLoginMessage(r *http.Request, lang, emailAddr string) string {
	if h.loginProtection == nil {
		return i18n.T(lang, "auth.invalid_credentials")
	}
	if locked, lockDuration := h.loginProtection.RecordFailedAttempt(emailAddr); locked {
		h.audit(r, model.EventLevelWarning, "Account locked due to failed attempts", nil,
			map[string]any{"email": emailAddr, "duration": lockDuration.String()})
		return i18n.T(lang, "auth.too_many_attempts", formatDuration(lockDuration))
	}
	if remaining := h.loginProtection.GetRemainingAttempts(emailAddr); remaining <= 3 && remaining > 0 {
		return i18n.T(lang, "auth.attempts_remaining", remaining)
	}
	return i18n.T(lang, "auth.invalid_credentials")
}

// Logout destroys the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := h.session.GetInt64(ctx, session.KeyUserID)
	if userID > 0 {
		h.audit(r, model.EventLevelInfo, "Member logged out", &userID, nil)
	}

	if err := h.session.Destroy(ctx); err != nil {
		slog.Error("session destroy error", "error", err)
	}
	slog.Info("member logged out", "member_id", userID)

	http.Redirect(w, r, redirectLogin, http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	h.renderer.RenderPage(w, r, "auth/register", render.TemplateData{
		Title: i18n.T(lang, "register.title"),
	})
}

// Register starts activation for a member and mails the link.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, RouteRegister) {
		return
	}
	clientIP := middleware.GetClientIP(r)
	if h.captcha != nil && !h.captcha.VerifyRequest(r, clientIP) {
		flashError(w, r, h.renderer, RouteRegister, i18n.T(lang, "captcha.failed"))
		return
	}

	emailAddr := r.FormValue("email")
	err := h.accounts.Register(r.Context(), emailAddr, r.FormValue("password"), r.FormValue("password_repeat"))
	if err != nil {
		key := service.MessageKey(err)
		if key == "error.generic" {
			slog.Error("registration failed", "error", err, "email", emailAddr)
		} else {
			slog.Info("registration refused", "reason", err, "email", emailAddr)
		}
		flashError(w, r, h.renderer, RouteRegister, i18n.T(lang, key))
		return
	}

	flashAndRedirect(w, r, h.renderer, redirectLogin, i18n.T(lang, "register.mail_sent"), session.FlashInfo)
}

// Activate follows the emailed registration link.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	member, err := h.accounts.Activate(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.tokenFailure(w, r, lang, RouteRegister, err)
		return
	}
	slog.Info("member activated login", "member_id", member.ID)
	flashAndRedirect(w, r, h.renderer, redirectLogin, i18n.T(lang, "register.activated"), session.FlashSuccess)
}

// RequestPasswordForm renders the "forgot password" page.
func (h *AuthHandler) RequestPasswordForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	h.renderer.RenderPage(w, r, "auth/request_password", render.TemplateData{
		Title: i18n.T(lang, "password.request_title"),
	})
}

// RequestPassword mails a reset link. The answer does not reveal whether
// the address belongs to a member.
func (h *AuthHandler) RequestPassword(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, RoutePassword) {
		return
	}
	if h.captcha != nil && !h.captcha.VerifyRequest(r, middleware.GetClientIP(r)) {
		flashError(w, r, h.renderer, RoutePassword, i18n.T(lang, "captcha.failed"))
		return
	}
	if err := h.accounts.RequestReset(r.Context(), r.FormValue("email")); err != nil {
		slog.Error("password reset request failed", "error", err)
	}
	flashAndRedirect(w, r, h.renderer, redirectLogin, i18n.T(lang, "password.reset_requested"), session.FlashInfo)
}

// ResetPasswordForm renders the new-password page for a valid token.
func (h *AuthHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	token := chi.URLParam(r, "token")
	if err := h.accounts.CheckResetToken(r.Context(), token); err != nil {
		h.tokenFailure(w, r, lang, RoutePassword, err)
		return
	}
	h.renderer.RenderPage(w, r, "auth/reset_password", render.TemplateData{
		Title: i18n.T(lang, "password.reset_title"),
		Data:  map[string]string{"Token": token},
	})
}

// ResetPassword sets the new password from the reset form.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if !parseFormOrRedirect(w, r, h.renderer, RoutePassword) {
		return
	}
	token := r.FormValue("token")
	err := h.accounts.ResetPassword(r.Context(), token, r.FormValue("password"), r.FormValue("password_repeat"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			h.tokenFailure(w, r, lang, RoutePassword, err)
			return
		}
		key := service.MessageKey(err)
		if key == "error.generic" {
			slog.Error("password reset failed", "error", err)
		}
		flashError(w, r, h.renderer, RoutePasswordReset+"/"+token, i18n.T(lang, key))
		return
	}
	flashAndRedirect(w, r, h.renderer, redirectLogin, i18n.T(lang, "password.reset_done"), session.FlashSuccess)
}

func (h *AuthHandler) tokenFailure(w http.ResponseWriter, r *http.Request, lang, target string, err error) {
	key := service.MessageKey(err)
	if key == "error.generic" {
		slog.Error("token check failed", "error", err, "path", r.URL.Path)
	} else {
		slog.Info("invalid token used", "path", r.URL.Path, "ip", middleware.GetClientIP(r))
	}
	flashError(w, r, h.renderer, target, i18n.T(lang, key))
}

func (h *AuthHandler) audit(r *http.Request, level, msg string, memberID *int64, metadata map[string]any) {
	if h.events == nil {
		return
	}
	if err := h.events.LogAuthEvent(r.Context(), level, msg, memberID,
		middleware.GetClientIP(r), r.UserAgent(), metadata); err != nil {
		slog.Error("failed to log auth event", "error", err)
	}
}

// safeRedirect accepts only local absolute paths.
func safeRedirect(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.Contains(target, "\\")
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
