// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/webhook"
)

// maxWebhookBody bounds a GitHub delivery.
const maxWebhookBody = 5 << 20

// Deployer schedules deploys for pushed branches. *webhook.Deployer
// satisfies it.
type Deployer interface {
	Enabled() bool
	Matches(branch string) bool
	Schedule(branch string) (webhook.Job, error)
}

// WebhooksHandler receives GitHub deliveries.
type WebhooksHandler struct {
	secret   string
	deployer Deployer
}

// NewWebhooksHandler creates a new WebhooksHandler.
func NewWebhooksHandler(secret string, deployer Deployer) *WebhooksHandler {
	return &WebhooksHandler{secret: secret, deployer: deployer}
}

// GitHub handles POST /webhooks/github.
func (h *WebhooksHandler) GitHub(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if err := webhook.VerifySignature(body, r.Header.Get(webhook.SignatureHeader), h.secret); err != nil {
		slog.Warn("github webhook signature rejected",
			"error", err,
			"ip", middleware.GetClientIP(r),
			"delivery", r.Header.Get(webhook.DeliveryHeader),
			"category", model.EventCategoryDeploy,
		)
		writeJSONError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	event := r.Header.Get(webhook.EventHeader)
	switch event {
	case webhook.EventPing:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "pong")
	case webhook.EventPush:
		h.push(w, r, body)
	default:
		slog.Info("github webhook event not handled", "event", event)
		writeJSONError(w, http.StatusBadRequest, "unsupported event")
	}
}

func (h *WebhooksHandler) push(w http.ResponseWriter, r *http.Request, body []byte) {
	ev, err := webhook.ParsePush(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	branch := ev.Branch()
	if h.deployer == nil || !h.deployer.Enabled() || !h.deployer.Matches(branch) {
		slog.Info("push ignored", "ref", ev.Ref, "repository", ev.Repository.FullName)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ignored")
		return
	}

	job, err := h.deployer.Schedule(branch)
	if err != nil {
		if errors.Is(err, webhook.ErrDeployerStopped) {
			writeJSONError(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		slog.Error("failed to schedule deploy", "error", err, "branch", branch)
		writeJSONError(w, http.StatusInternalServerError, "deploy not scheduled")
		return
	}

	slog.Info("deploy requested by push",
		"job_id", job.ID,
		"branch", branch,
		"pusher", ev.Pusher.Name,
		"commit", ev.After,
	)
	writeJSONStatus(w, http.StatusAccepted, map[string]any{
		"message": "deploy scheduled",
		"job_id":  job.ID,
		"branch":  job.Branch,
		"run_at":  job.RunAt.UTC().Format(time.RFC3339),
	})
}
