// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/medlem-go/internal/cache"
	"github.com/olegiv/medlem-go/internal/email"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
)

// MailSender sends a templated mail. *email.Mailer satisfies it.
type MailSender interface {
	Send(ctx context.Context, typ email.Type, to string, data email.Data) error
}

// PaymentInput is the payment form.
type PaymentInput struct {
	Amount  float64 `form:"summa" json:"summa" validate:"gt=0"`
	Date    string  `form:"datum" json:"datum" validate:"required,datetime=2006-01-02"`
	Year    int64   `form:"ar" json:"ar" validate:"min=1000,max=9999"`
	Comment string  `form:"kommentar" json:"kommentar" validate:"max=2000"`
}

// PaymentResult reports what a created payment triggered.
type PaymentResult struct {
	Payment     store.Payment
	WelcomeSent bool
}

// PaymentService manages membership payments.
type PaymentService struct {
	q              *store.Queries
	cache          *cache.Manager
	mailer         MailSender
	welcomeEnabled bool
	now            func() time.Time
}

// NewPaymentService creates a PaymentService. mailer may be nil, which
// disables the welcome mail.
func NewPaymentService(db *sql.DB, cm *cache.Manager, mailer MailSender, welcomeEnabled bool) *PaymentService {
	return &PaymentService{
		q:              store.New(db),
		cache:          cm,
		mailer:         mailer,
		welcomeEnabled: welcomeEnabled && mailer != nil,
		now:            time.Now,
	}
}

// List returns every payment, newest first, with member names.
func (s *PaymentService) List(ctx context.Context) ([]store.PaymentWithMember, error) {
	payments, err := s.q.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return payments, nil
}

// ListForMember returns the member and their payments. A missing member is
// sql.ErrNoRows.
func (s *PaymentService) ListForMember(ctx context.Context, memberID int64) (store.Member, []store.Payment, error) {
	m, err := s.q.GetMember(ctx, memberID)
	if err != nil {
		return store.Member{}, nil, err
	}
	payments, err := s.q.ListPaymentsByMember(ctx, memberID)
	if err != nil {
		return store.Member{}, nil, fmt.Errorf("listing payments for member %d: %w", memberID, err)
	}
	return m, payments, nil
}

// Create records a payment. On the member's first payment the welcome
// letter is sent once, when enabled. A failed welcome mail does not fail
// the payment.
func (s *PaymentService) Create(ctx context.Context, memberID int64, in PaymentInput) (PaymentResult, error) {
	m, err := s.q.GetMember(ctx, memberID)
	if err != nil {
		return PaymentResult{}, err
	}
	in.Date = strings.TrimSpace(in.Date)
	in.Comment = clean(in.Comment)
	if err := validateStruct(in); err != nil {
		return PaymentResult{}, err
	}

	p, err := s.q.CreatePayment(ctx, store.CreatePaymentParams{
		MemberID:  memberID,
		Amount:    in.Amount,
		Date:      in.Date,
		Year:      in.Year,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	})
	if err != nil {
		return PaymentResult{}, fmt.Errorf("creating payment: %w", err)
	}
	s.invalidate(ctx)

	res := PaymentResult{Payment: p}
	if s.shouldWelcome(ctx, m) {
		res.WelcomeSent = s.sendWelcome(ctx, m)
	}
	return res, nil
}

func (s *PaymentService) shouldWelcome(ctx context.Context, m store.Member) bool {
	if !s.welcomeEnabled || m.WelcomeSent || !m.Email.Valid || m.Email.String == "" {
		return false
	}
	n, err := s.q.CountPaymentsByMember(ctx, m.ID)
	if err != nil {
		slog.Error("failed to count payments", "member_id", m.ID, "error", err)
		return false
	}
	return n == 1
}

func (s *PaymentService) sendWelcome(ctx context.Context, m store.Member) bool {
	err := s.mailer.Send(ctx, email.TypeWelcome, m.Email.String, email.Data{Name: m.FirstName})
	if err != nil {
		slog.Error("welcome mail failed", "member_id", m.ID, "error", err,
			"category", model.EventCategoryMail)
		return false
	}
	if err := s.q.MarkWelcomeSent(ctx, m.ID, s.now()); err != nil {
		slog.Error("failed to mark welcome letter sent", "member_id", m.ID, "error", err)
	}
	return true
}

// Delete removes a payment and returns it.
func (s *PaymentService) Delete(ctx context.Context, id int64) (store.Payment, error) {
	p, err := s.q.GetPayment(ctx, id)
	if err != nil {
		return store.Payment{}, err
	}
	n, err := s.q.DeletePayment(ctx, id)
	if err != nil {
		return store.Payment{}, fmt.Errorf("deleting payment %d: %w", id, err)
	}
	if n == 0 {
		return store.Payment{}, sql.ErrNoRows
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *PaymentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePayments(ctx)
	}
}
