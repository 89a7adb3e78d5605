// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/medlem-go/internal/testutil"
)

func TestSmarterMail_UpdateAlias(t *testing.T) {
	var got struct {
		Alias struct {
			Name    string   `json:"name"`
			Targets []string `json:"aliasTargetList"`
		} `json:"alias"`
	}
	var authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/authenticate-user":
			var creds map[string]string
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds["username"] != "admin" || creds["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-1"})
		case "/api/v1/settings/domain/alias-put":
			authHeader = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewSmarterMail(srv.URL+"/", "admin", "secret")
	require.NoError(t, client.UpdateAlias(context.Background(), "medlemmar", []string{"a@example.se", "b@example.se"}))
	assert.Equal(t, "Bearer tok-1", authHeader)
	assert.Equal(t, "medlemmar", got.Alias.Name)
	assert.Equal(t, []string{"a@example.se", "b@example.se"}, got.Alias.Targets)

	bad := NewSmarterMail(srv.URL, "admin", "wrong")
	err := bad.UpdateAlias(context.Background(), "medlemmar", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to authenticate")
}

func TestSmarterMail_RejectedUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/authenticate-user" {
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "no such domain"})
	}))
	defer srv.Close()

	err := NewSmarterMail(srv.URL, "u", "p").UpdateAlias(context.Background(), "medlemmar", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such domain")
}

func TestAliasSync_NilIsNoop(t *testing.T) {
	var a *AliasSync
	assert.NotPanics(t, func() {
		a.Refresh("test")
		a.Wait()
		assert.NoError(t, a.Sync(context.Background()))
		assert.Empty(t, a.Alias())
	})
	assert.Nil(t, NewAliasSync(testutil.TestDB(t), nil, "medlemmar"))
}

func TestAliasSync_NormalizesName(t *testing.T) {
	a := NewAliasSync(testutil.TestDB(t), &fakeAlias{}, "Aktiva Medlemmar Åland")
	assert.Equal(t, "aktiva-medlemmar-aland", a.Alias())
}
