// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// AliasUpdater replaces the targets of a mail alias.
type AliasUpdater interface {
	UpdateAlias(ctx context.Context, alias string, targets []string) error
}

// SmarterMail talks to the SmarterMail REST API.
type SmarterMail struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewSmarterMail creates a client for the API at baseURL.
func NewSmarterMail(baseURL, username, password string) *SmarterMail {
	return &SmarterMail{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// UpdateAlias authenticates and then replaces the alias target list.
func (s *SmarterMail) UpdateAlias(ctx context.Context, alias string, targets []string) error {
	token, err := s.authenticate(ctx)
	if err != nil {
		return err
	}

	body := map[string]any{
		"alias": map[string]any{
			"name":            alias,
			"aliasTargetList": targets,
		},
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := s.post(ctx, "/api/v1/settings/domain/alias-put", token, body, &resp); err != nil {
		return fmt.Errorf("updating alias %s: %w", alias, err)
	}
	if !resp.Success {
		return fmt.Errorf("updating alias %s: %s", alias, resp.Message)
	}
	return nil
}

func (s *SmarterMail) authenticate(ctx context.Context) (string, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"username": s.username, "password": s.password}
	if err := s.post(ctx, "/api/v1/auth/authenticate-user", "", body, &resp); err != nil {
		return "", fmt.Errorf("failed to authenticate with SmarterMail API: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("failed to authenticate with SmarterMail API: empty access token")
	}
	return resp.AccessToken, nil
}

func (s *SmarterMail) post(ctx context.Context, path, token string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AliasSync keeps the active-member mail alias in step with the register.
// A nil *AliasSync does nothing.
type AliasSync struct {
	q       *store.Queries
	updater AliasUpdater
	alias   string
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAliasSync returns nil when updater is nil. The alias name is
// normalized to an ASCII slug.
func NewAliasSync(db *sql.DB, updater AliasUpdater, alias string) *AliasSync {
	if updater == nil {
		return nil
	}
	return &AliasSync{
		q:       store.New(db),
		updater: updater,
		alias:   util.Slugify(alias),
		timeout: 30 * time.Second,
	}
}

// Alias returns the normalized alias name.
func (a *AliasSync) Alias() string {
	if a == nil {
		return ""
	}
	return a.alias
}

// Sync pushes the current communication list to the alias.
func (a *AliasSync) Sync(ctx context.Context) error {
	if a == nil {
		return nil
	}
	members, err := a.q.ListCommunicationMembers(ctx)
	if err != nil {
		return fmt.Errorf("listing communication members: %w", err)
	}
	targets := make([]string, 0, len(members))
	for _, m := range members {
		targets = append(targets, m.Email.String)
	}
	return a.updater.UpdateAlias(ctx, a.alias, targets)
}

// Refresh runs Sync in the background. The result is only logged, so a
// member save never waits for or fails on the mail server.
func (a *AliasSync) Refresh(reason string) {
	if a == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.Sync(ctx); err != nil {
			slog.Error("mail alias update failed",
				"alias", a.alias, "reason", reason, "error", err,
				"category", model.EventCategoryMail)
			return
		}
		slog.Info("mail alias updated successfully", "alias", a.alias, "reason", reason)
	}()
}

// Wait blocks until background refreshes finish.
func (a *AliasSync) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}
