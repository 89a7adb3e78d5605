// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/model"
)

// maxLockout caps the doubling lockout period.
const maxLockout = 24 * time.Hour

// maxTrackedIPs bounds the IP limiter map between sweeps.
const maxTrackedIPs = 10000

// LoginProtection combines a per-IP rate limit on the login POST with a
// per-account lockout after repeated wrong passwords. Accounts are keyed by
// the lowercased e-mail address, whether or not a member has it.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.Mutex
	accounts map[string]*accountState

	cfg LoginProtectionConfig
	now func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login posts per second per IP.
	IPRateLimit float64
	IPBurst     int
	// MaxFailedAttempts within AttemptWindow locks the account.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout; each further lockout doubles it.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginProtectionConfig returns the production settings.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// withDefaults fills zero fields from DefaultLoginProtectionConfig.
func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	def := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = def.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = def.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = def.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = def.AttemptWindow
	}
	return c
}

// NewLoginProtection creates a LoginProtection and starts its sweeper.
// Call Stop on shutdown.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	lp := &LoginProtection{
		ipLimiters: newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts:   make(map[string]*accountState),
		cfg:        cfg,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go lp.sweepLoop(10 * time.Minute)
	return lp
}

// Stop ends the sweeper. It is safe to call more than once.
func (lp *LoginProtection) Stop() {
	lp.stopOnce.Do(func() { close(lp.stop) })
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckIPRateLimit reports whether a login post from ip may proceed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsAccountLocked reports whether email is locked and for how long.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok {
		return false, 0
	}
	if left := st.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a wrong password for email. When the count
// reaches the limit the account is locked and the lock period returned.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := accountKey(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[key]
	if !ok || now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		if !ok {
			st = &accountState{}
			lp.accounts[key] = st
		}
		st.failures = 0
		st.windowStart = now
	}
	st.failures++

	if st.failures < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	d := lp.lockoutFor(st.lockouts)
	st.lockedUntil = now.Add(d)
	st.lockouts++
	st.failures = 0

	slog.Warn("account locked after failed logins",
		"email", key,
		"lockouts", st.lockouts,
		"duration", d,
		"category", model.EventCategoryAuth,
	)
	return true, d
}

// lockoutFor returns the lock period after n earlier lockouts.
func (lp *LoginProtection) lockoutFor(n int) time.Duration {
	d := lp.cfg.LockoutDuration
	for range n {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// RecordSuccessfulLogin forgets the failures of email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, accountKey(email))
	lp.mu.Unlock()
}

// GetRemainingAttempts returns how many wrong passwords email has left in
// the current window.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok || lp.now().Sub(st.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-st.failures, 0)
}

func (lp *LoginProtection) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lp.sweep()
		case <-lp.stop:
			return
		}
	}
}

// sweep drops accounts whose lock and window have both run out.
func (lp *LoginProtection) sweep() {
	if lp.ipLimiters.clearIfExceeds(maxTrackedIPs) {
		slog.Info("cleared login rate limiters", "limit", maxTrackedIPs)
	}

	now := lp.now()
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for key, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
		}
	}
}

// Middleware rate limits login posts per client IP. Other methods pass.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := GetClientIP(r)
			if lp.CheckIPRateLimit(ip) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("login rate limit exceeded", "ip", ip, "category", model.EventCategoryAuth)
			msg := i18n.T(GetLang(r), "auth.rate_limit")
			if IsAJAX(r) {
				writeDenial(w, http.StatusTooManyRequests, msg)
				return
			}
			http.Error(w, msg, http.StatusTooManyRequests)
		})
	}
}
