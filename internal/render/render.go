// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the page templates and renders them with the
// session-derived data every page needs (flash, CSRF token, login state).
package render

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/session"
)

// pageDirs are the template directories rendered with the base layout.
var pageDirs = []string{"auth", "admin", "user", "errors"}

const baseLayout = "layouts/base.html"

// Renderer handles template rendering with caching.
type Renderer struct {
	templates        map[string]*template.Template
	session          session.Session
	isDev            bool
	turnstileSiteKey string
	markdown         goldmark.Markdown
	policy           *bluemonday.Policy
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS      fs.FS
	Session          session.Session
	IsDev            bool
	TurnstileSiteKey string
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:        make(map[string]*template.Template),
		session:          cfg.Session,
		isDev:            cfg.IsDev,
		turnstileSiteKey: cfg.TurnstileSiteKey,
		markdown:         goldmark.New(),
		policy:           bluemonday.UGCPolicy(),
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses every page template together with the base layout
// and the partials. Pages are named "<dir>/<file>" without the extension.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := r.getTemplateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for _, dir := range pageDirs {
		pages, err := r.getTemplateFiles(templatesFS, dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", dir, err)
		}

		for _, tmplPath := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			files := []string{baseLayout}
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	return nil
}

// getTemplateFiles returns all .html files in a directory.
func (r *Renderer) getTemplateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		// Directory might not exist yet, that's ok
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// Has reports whether a page template with the given name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// templateFuncs returns custom template functions.
func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"T": i18n.T,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"formatAmount": func(f float64) string {
			return strings.Replace(fmt.Sprintf("%.2f", f), ".", ",", 1)
		},
		"nullString": func(ns sql.NullString) string {
			if !ns.Valid {
				return ""
			}
			return ns.String
		},
		"truncate": func(s string, length int) string {
			if len(s) <= length {
				return s
			}
			return s[:length] + "..."
		},
		"markdown": r.Markdown,
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
	}
}

// Markdown converts comment text to sanitized HTML.
func (r *Renderer) Markdown(s string) template.HTML {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s)) //nolint:gosec // escaped above
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by bluemonday
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	CSRFToken   string
	Lang        string

	LoggedIn bool
	IsAdmin  bool
	UserName string

	// Errors maps form field names to translated messages.
	Errors map[string]string

	TurnstileSiteKey string
	IsDev            bool
}

// Render renders a page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a page with the given status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	r.fill(req, &data)

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// RenderPage renders a page and answers 500 if that fails.
func (r *Renderer) RenderPage(w http.ResponseWriter, req *http.Request, name string, data TemplateData) {
	if err := r.Render(w, req, name, data); err != nil {
		slog.Error("failed to render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fill adds the session-derived fields.
func (r *Renderer) fill(req *http.Request, data *TemplateData) {
	data.CurrentYear = time.Now().Year()
	data.IsDev = r.isDev
	data.TurnstileSiteKey = r.turnstileSiteKey
	if data.Lang == "" {
		data.Lang = middleware.GetLang(req)
	}

	if r.session == nil {
		return
	}
	ctx := req.Context()

	if flash, ok := r.session.PopFlash(ctx); ok && flash.Message != "" {
		data.Flash = flash.Message
		data.FlashType = flash.Type
		if data.FlashType == "" {
			data.FlashType = session.FlashInfo
		}
	}

	if data.CSRFToken == "" {
		tok, err := r.session.CSRFToken(ctx)
		if err != nil {
			slog.Error("failed to read csrf token for template", "error", err)
		}
		data.CSRFToken = tok
	}

	data.LoggedIn = r.session.IsLoggedIn(ctx)
	data.IsAdmin = r.session.IsAdmin(ctx)
	data.UserName = r.session.GetString(ctx, session.KeyFirstName)
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.session != nil {
		r.session.SetFlash(req.Context(), flashType, message)
	}
}
