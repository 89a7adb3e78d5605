// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	logger := quietLogger()
	s := New(logger)
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
	if len(s.Jobs()) != 0 {
		t.Error("new scheduler should have no jobs")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(quietLogger())
	if err := s.Register("noop", "", "@hourly", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Start()
	s.Stop()
}

func TestRegister_Errors(t *testing.T) {
	s := New(quietLogger())
	noop := func(context.Context) error { return nil }

	if err := s.Register("a", "", "not a schedule", noop); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if err := s.Register("a", "", "@daily", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("a", "", "@daily", noop); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestRunNow(t *testing.T) {
	s := New(quietLogger())
	calls := 0
	boom := errors.New("boom")
	fail := false
	err := s.Register("count", "Counts", "@hourly", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("job context has no deadline")
		}
		calls++
		if fail {
			return boom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.RunNow("count"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	fail = true
	if err := s.RunNow("count"); !errors.Is(err, boom) {
		t.Fatalf("RunNow error = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	jobs := s.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].LastRun.IsZero() {
		t.Error("LastRun not recorded")
	}
	if jobs[0].LastError != "boom" {
		t.Errorf("LastError = %q", jobs[0].LastError)
	}

	if err := s.RunNow("missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("RunNow(missing) = %v, want ErrUnknownJob", err)
	}
}

func TestJobs_NextRunAfterStart(t *testing.T) {
	s := New(quietLogger())
	_ = s.Register("b", "", "@daily", func(context.Context) error { return nil })
	_ = s.Register("a", "", "@hourly", func(context.Context) error { return nil })
	s.Start()
	defer s.Stop()

	jobs := s.Jobs()
	if jobs[0].Name != "a" || jobs[1].Name != "b" {
		t.Errorf("jobs not sorted: %+v", jobs)
	}
	for _, j := range jobs {
		if !j.NextRun.After(time.Now()) {
			t.Errorf("job %s NextRun = %v", j.Name, j.NextRun)
		}
	}
}
