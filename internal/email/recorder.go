// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"context"
	"log/slog"
	"sync"
)

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP server is configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the recipient and subject of msg.
func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail not sent, smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Recorder is a Sender that keeps messages in memory. Err, when set, is
// returned from every Send.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// Send records msg.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
