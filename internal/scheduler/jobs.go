// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job names.
const (
	JobPurgeTokens  = "purge-tokens"
	JobGeoIPReload  = "geoip-reload"
	JobEventCleanup = "event-cleanup"
)

// TokenPurger removes expired registration and password reset tokens.
type TokenPurger interface {
	PurgeTokens(ctx context.Context) (int64, error)
}

// EventPurger removes old event log entries.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reopens a file-backed database.
type Reloader interface {
	Reload() error
}

// Maintenance collects the dependencies of the built-in jobs. Nil fields
// skip the corresponding job.
type Maintenance struct {
	Tokens         TokenPurger
	Events         EventPurger
	EventRetention time.Duration
	GeoIP          Reloader
}

// RegisterMaintenance adds the built-in maintenance jobs.
func (s *Scheduler) RegisterMaintenance(m Maintenance) error {
	if m.Tokens != nil {
		err := s.Register(JobPurgeTokens, "Delete expired account tokens", "@hourly",
			func(ctx context.Context) error {
				n, err := m.Tokens.PurgeTokens(ctx)
				if err != nil {
					return err
				}
				logRemoved(s.logger, "auth tokens purged", n)
				return nil
			})
		if err != nil {
			return err
		}
	}

	if m.Events != nil && m.EventRetention > 0 {
		err := s.Register(JobEventCleanup, "Delete old event log entries", "30 3 * * *",
			func(ctx context.Context) error {
				n, err := m.Events.DeleteOldEvents(ctx, m.EventRetention)
				if err != nil {
					return err
				}
				logRemoved(s.logger, "old events purged", n)
				return nil
			})
		if err != nil {
			return err
		}
	}

	if m.GeoIP != nil {
		err := s.Register(JobGeoIPReload, "Reload the GeoIP country database", "@daily",
			func(context.Context) error { return m.GeoIP.Reload() })
		if err != nil {
			return err
		}
	}

	return nil
}

func logRemoved(logger *slog.Logger, msg string, n int64) {
	if n > 0 {
		logger.Info(msg, "count", n)
	}
}
