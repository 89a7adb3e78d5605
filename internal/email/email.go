// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package email renders the templated member mails and hands them to a
// Sender. Production uses SMTPSender; tests use Recorder.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Type identifies a mail template.
type Type string

// Mail types.
const (
	TypeVerification        Type = "verification"
	TypeVerificationSuccess Type = "verification_success"
	TypePasswordReset       Type = "password_reset"
	TypePasswordSuccess     Type = "password_reset_success"
	TypeWelcome             Type = "welcome"
	TypeTest                Type = "test"
)

// subjects are the default subjects per type.
var subjects = map[Type]string{
	TypeVerification:        "Bekräfta ditt konto",
	TypeVerificationSuccess: "Ditt konto är aktiverat",
	TypePasswordReset:       "Återställ ditt lösenord",
	TypePasswordSuccess:     "Ditt lösenord är ändrat",
	TypeWelcome:             "Välkommen som medlem!",
	TypeTest:                "Testmeddelande",
}

// Message is a rendered mail ready to send.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Data is the template data. SiteAddress is filled in by the Mailer.
type Data struct {
	Name        string
	Email       string
	Link        string
	SiteAddress string
	Extra       map[string]string
}

// Mailer renders templates and sends them through a Sender.
type Mailer struct {
	sender      Sender
	templates   *template.Template
	siteAddress string
	logger      *slog.Logger
}

// NewMailer parses the embedded templates.
func NewMailer(sender Sender, siteAddress string, logger *slog.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing mail templates: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		sender:      sender,
		templates:   tmpl,
		siteAddress: siteAddress,
		logger:      logger,
	}, nil
}

// Render produces the message for typ without sending it.
func (m *Mailer) Render(typ Type, to string, data Data) (Message, error) {
	subject, ok := subjects[typ]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail type %q", typ)
	}
	tmpl := m.templates.Lookup(string(typ) + ".html")
	if tmpl == nil {
		return Message{}, fmt.Errorf("mail template not found: %s.html", typ)
	}

	data.SiteAddress = m.siteAddress
	if data.Email == "" {
		data.Email = to
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("rendering %s mail: %w", typ, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

// Send renders and sends a mail.
func (m *Mailer) Send(ctx context.Context, typ Type, to string, data Data) error {
	msg, err := m.Render(typ, to, data)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		m.logger.Error("mail send failed", "type", string(typ), "to", to, "error", err)
		return fmt.Errorf("sending %s mail: %w", typ, err)
	}
	m.logger.Info("mail sent", "type", string(typ), "to", to)
	return nil
}
