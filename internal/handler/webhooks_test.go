// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/medlem-go/internal/webhook"
)

const webhookSecret = "hemligt"

func githubRequest(event, body, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, RouteGitHubWebhook, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.EventHeader, event)
	req.Header.Set(webhook.DeliveryHeader, "d-1")
	if secret != "" {
		req.Header.Set(webhook.SignatureHeader, "sha256="+webhook.GenerateSignature([]byte(body), secret))
	}
	return req
}

func TestGitHubWebhook(t *testing.T) {
	push := func(ref string) string {
		return `{"ref":"` + ref + `","after":"abc123","repository":{"full_name":"klubb/medlem"},"pusher":{"name":"eva"}}`
	}

	tests := []struct {
		name         string
		event        string
		body         string
		secret       string
		deployErr    error
		wantCode     int
		wantBody     string
		wantSchedule bool
	}{
		{"missing signature", webhook.EventPush, push("refs/heads/main"), "", nil, http.StatusUnauthorized, "invalid signature", false},
		{"wrong secret", webhook.EventPush, push("refs/heads/main"), "fel", nil, http.StatusUnauthorized, "invalid signature", false},
		{"ping", webhook.EventPing, `{"zen":"hej"}`, webhookSecret, nil, http.StatusOK, "pong", false},
		{"push to deploy branch", webhook.EventPush, push("refs/heads/main"), webhookSecret, nil, http.StatusAccepted, "job-1", true},
		{"push to other branch", webhook.EventPush, push("refs/heads/feature"), webhookSecret, nil, http.StatusOK, "ignored", false},
		{"tag push", webhook.EventPush, push("refs/tags/v1.0"), webhookSecret, nil, http.StatusOK, "ignored", false},
		{"bad payload", webhook.EventPush, `{`, webhookSecret, nil, http.StatusBadRequest, "invalid payload", false},
		{"unsupported event", "issues", `{}`, webhookSecret, nil, http.StatusBadRequest, "unsupported event", false},
		{"deployer stopped", webhook.EventPush, push("refs/heads/main"), webhookSecret, webhook.ErrDeployerStopped, http.StatusServiceUnavailable, "shutting down", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &stubDeployer{enabled: true, branch: "main", err: tt.deployErr}
			h := NewWebhooksHandler(webhookSecret, d)

			rec := httptest.NewRecorder()
			h.GitHub(rec, githubRequest(tt.event, tt.body, tt.secret))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
			if got := len(d.scheduled) == 1; got != tt.wantSchedule {
				t.Errorf("scheduled = %v, want %v", d.scheduled, tt.wantSchedule)
			}
		})
	}
}

func TestGitHubWebhook_AcceptedBody(t *testing.T) {
	h := NewWebhooksHandler(webhookSecret, &stubDeployer{enabled: true, branch: "main"})
	rec := httptest.NewRecorder()
	h.GitHub(rec, githubRequest(webhook.EventPush, `{"ref":"refs/heads/main"}`, webhookSecret))

	var body struct {
		Success bool   `json:"success"`
		JobID   string `json:"job_id"`
		Branch  string `json:"branch"`
		RunAt   string `json:"run_at"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.JobID != "job-1" || body.Branch != "main" || body.RunAt == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestGitHubWebhook_DisabledDeployer(t *testing.T) {
	d := &stubDeployer{enabled: false, branch: "main"}
	h := NewWebhooksHandler(webhookSecret, d)
	rec := httptest.NewRecorder()
	h.GitHub(rec, githubRequest(webhook.EventPush, `{"ref":"refs/heads/main"}`, webhookSecret))

	if rec.Code != http.StatusOK || rec.Body.String() != "ignored" {
		t.Errorf("status %d body %q", rec.Code, rec.Body.String())
	}
	if len(d.scheduled) != 0 {
		t.Error("disabled deployer scheduled a job")
	}
}

func TestGitHubWebhook_SkipsCSRF(t *testing.T) {
	app := newTestApp(t)

	rec := app.serve(githubRequest(webhook.EventPush, `{"ref":"refs/heads/main"}`, webhookSecret))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(app.deployer.scheduled) != 1 {
		t.Error("deploy not scheduled through the full router")
	}
}
