// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"MEDLEM_DB_PATH" envDefault:"./data/medlem.db"`
	SessionSecret string `env:"MEDLEM_SESSION_SECRET,required"`
	ServerHost    string `env:"MEDLEM_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"MEDLEM_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"MEDLEM_ENV" envDefault:"development"`
	LogLevel      string `env:"MEDLEM_LOG_LEVEL" envDefault:"info"`
	SiteAddress   string `env:"MEDLEM_SITE_ADDRESS" envDefault:"http://localhost:8080"` // Absolute base for links in emails

	// Session and CSRF
	SessionLifetime    time.Duration `env:"MEDLEM_SESSION_LIFETIME" envDefault:"24h"`
	SessionIdleTimeout time.Duration `env:"MEDLEM_SESSION_IDLE_TIMEOUT" envDefault:"2h"`
	CSRFExemptPrefixes []string      `env:"MEDLEM_CSRF_EXEMPT_PREFIXES" envDefault:"/webhooks" envSeparator:","`

	// SMTP
	SMTPHost      string `env:"MEDLEM_SMTP_HOST"`
	SMTPPort      int    `env:"MEDLEM_SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"MEDLEM_SMTP_USERNAME"`
	SMTPPassword  string `env:"MEDLEM_SMTP_PASSWORD"`
	SMTPFromName  string `env:"MEDLEM_SMTP_FROM_NAME" envDefault:"Medlemsregistret"`
	SMTPFromEmail string `env:"MEDLEM_SMTP_FROM_EMAIL"`
	SMTPReplyTo   string `env:"MEDLEM_SMTP_REPLYTO"`
	WelcomeMail   bool   `env:"MEDLEM_WELCOME_MAIL_ENABLED" envDefault:"false"`
	AdminNotifyTo string `env:"MEDLEM_ADMIN_NOTIFY_EMAIL"`
	MailAliasName string `env:"MEDLEM_MAIL_ALIAS_NAME" envDefault:"medlemmar"`
	MailAliasURL  string `env:"MEDLEM_SMARTERMAIL_BASE_URL"`
	MailAliasUser string `env:"MEDLEM_SMARTERMAIL_USERNAME"`
	MailAliasPass string `env:"MEDLEM_SMARTERMAIL_PASSWORD"`

	// Turnstile CAPTCHA
	TurnstileSiteKey   string `env:"MEDLEM_TURNSTILE_SITE_KEY"`
	TurnstileSecretKey string `env:"MEDLEM_TURNSTILE_SECRET_KEY"`

	// GitHub deploy webhook
	GitHubWebhookSecret string        `env:"MEDLEM_GITHUB_WEBHOOK_SECRET"`
	DeployBranchPrefix  string        `env:"MEDLEM_DEPLOY_BRANCH_PREFIX" envDefault:"release/"`
	DeployScript        string        `env:"MEDLEM_DEPLOY_SCRIPT"`
	DeployDelay         time.Duration `env:"MEDLEM_DEPLOY_DELAY" envDefault:"2m"`

	// Cache configuration
	RedisURL    string `env:"MEDLEM_REDIS_URL"`                          // Optional Redis URL for shared caching
	CachePrefix string `env:"MEDLEM_CACHE_PREFIX" envDefault:"medlem:"` // Redis key prefix
	CacheTTL    int    `env:"MEDLEM_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds

	// GeoIP configuration
	GeoIPDBPath string `env:"MEDLEM_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	MetricsEnabled bool `env:"MEDLEM_METRICS_ENABLED" envDefault:"false"`

	// Event log entries older than this are purged nightly. Zero keeps everything.
	EventRetention time.Duration `env:"MEDLEM_EVENT_RETENTION" envDefault:"8760h"`

	// Seeding configuration
	SeedAdminEmail    string `env:"MEDLEM_SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"MEDLEM_SEED_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SMTPEnabled returns true if outbound mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromEmail != ""
}

// TurnstileEnabled returns true if Turnstile is configured.
func (c Config) TurnstileEnabled() bool {
	return c.TurnstileSiteKey != "" && c.TurnstileSecretKey != ""
}

// MailAliasEnabled returns true if the SmarterMail alias API is configured.
func (c Config) MailAliasEnabled() bool {
	return c.MailAliasURL != "" && c.MailAliasUser != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("MEDLEM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("MEDLEM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("MEDLEM_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("MEDLEM_SMTP_PORT out of range: %d", c.SMTPPort)
	}

	if c.WelcomeMail && !c.SMTPEnabled() {
		return errors.New("MEDLEM_WELCOME_MAIL_ENABLED requires MEDLEM_SMTP_HOST and MEDLEM_SMTP_FROM_EMAIL")
	}

	for _, p := range c.CSRFExemptPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("MEDLEM_CSRF_EXEMPT_PREFIXES entry %q must start with /", p)
		}
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
