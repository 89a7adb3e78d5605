// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"sync"

	"github.com/olegiv/medlem-go/internal/email"
)

type sentMail struct {
	Type email.Type
	To   string
	Data email.Data
}

// fakeMailer records Send calls without rendering.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, typ email.Type, to string, data email.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{Type: typ, To: to, Data: data})
	return nil
}

func (f *fakeMailer) last() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func (f *fakeMailer) count(typ email.Type) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.Type == typ {
			n++
		}
	}
	return n
}

// fakeAlias records alias updates.
type fakeAlias struct {
	mu      sync.Mutex
	alias   string
	targets []string
	calls   int
}

func (f *fakeAlias) UpdateAlias(_ context.Context, alias string, targets []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alias = alias
	f.targets = append([]string(nil), targets...)
	f.calls++
	return nil
}

func (f *fakeAlias) snapshot() (string, []string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alias, f.targets, f.calls
}
