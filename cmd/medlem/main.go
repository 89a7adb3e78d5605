// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/medlem-go/internal/cache"
	"github.com/olegiv/medlem-go/internal/captcha"
	"github.com/olegiv/medlem-go/internal/config"
	"github.com/olegiv/medlem-go/internal/email"
	"github.com/olegiv/medlem-go/internal/geoip"
	"github.com/olegiv/medlem-go/internal/handler"
	"github.com/olegiv/medlem-go/internal/i18n"
	"github.com/olegiv/medlem-go/internal/importer"
	"github.com/olegiv/medlem-go/internal/logging"
	"github.com/olegiv/medlem-go/internal/middleware"
	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/render"
	"github.com/olegiv/medlem-go/internal/scheduler"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/session"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/version"
	"github.com/olegiv/medlem-go/internal/webhook"
	"github.com/olegiv/medlem-go/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "medlem - membership register\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDLEM_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDLEM_DB_PATH         SQLite database path (default: ./data/medlem.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDLEM_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDLEM_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDLEM_SMTP_HOST       SMTP server; mail is only logged when unset\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEDLEM_REDIS_URL       Redis URL for shared caching (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("medlem %s\n", version.Current())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n system initialized", "languages", i18n.GetSupportedLanguages())

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// From here on WARN and ERROR records also land in the event log.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedAdmin{
		Email:     cfg.SeedAdminEmail,
		Password:  cfg.SeedAdminPassword,
		FirstName: "Admin",
		LastName:  "Admin",
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sess := session.New(db, session.Options{
		Lifetime:    cfg.SessionLifetime,
		IdleTimeout: cfg.SessionIdleTimeout,
		IsDev:       cfg.IsDevelopment(),
	})

	backend, backendName := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	})
	cacheManager := cache.NewManager(backend, backendName, time.Duration(cfg.CacheTTL)*time.Second)
	defer func() { _ = cacheManager.Close() }()
	slog.Info("cache manager initialized", "backend", backendName)

	renderer, err := render.New(render.Config{
		TemplatesFS:      web.Templates(),
		Session:          sess,
		IsDev:            cfg.IsDevelopment(),
		TurnstileSiteKey: cfg.TurnstileSiteKey,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing mailer: %w", err)
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip disabled", "error", err)
	}
	defer func() { _ = geo.Close() }()

	var aliasSync *service.AliasSync
	if cfg.MailAliasEnabled() {
		aliasSync = service.NewAliasSync(db,
			service.NewSmarterMail(cfg.MailAliasURL, cfg.MailAliasUser, cfg.MailAliasPass), cfg.MailAliasName)
		defer aliasSync.Wait()
		slog.Info("mail alias sync enabled", "alias", aliasSync.Alias())
	}

	members := service.NewMemberService(db, cacheManager, aliasSync)
	payments := service.NewPaymentService(db, cacheManager, mailer, cfg.WelcomeMail)
	reports := service.NewReportService(db, cacheManager)
	roles := service.NewRoleService(db, cacheManager)
	sailings := service.NewSailingService(db, cacheManager)
	events := service.NewEventService(db, geo)
	accounts := service.NewAccountService(db, mailer, cfg.SiteAddress)

	sched := scheduler.New(logger)
	maint := scheduler.Maintenance{
		Tokens:         accounts,
		Events:         events,
		EventRetention: cfg.EventRetention,
	}
	if geo.Enabled() {
		maint.GeoIP = geo
	}
	if err := sched.RegisterMaintenance(maint); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	deployer := webhook.NewDeployer(webhook.DeployConfig{
		BranchPrefix: cfg.DeployBranchPrefix,
		Script:       cfg.DeployScript,
		Delay:        cfg.DeployDelay,
	}, nil, logger)
	deployer.OnFinish(func(job webhook.Job, err error) {
		if err != nil {
			return // logged as an error by the deployer
		}
		_ = events.LogInfo(context.Background(), model.EventCategoryDeploy, "deploy finished", nil, "",
			map[string]any{"job_id": job.ID, "branch": job.Branch})
	})
	defer deployer.Stop()

	var turnstile *captcha.Turnstile
	if cfg.TurnstileEnabled() {
		turnstile = captcha.New(cfg.TurnstileSiteKey, cfg.TurnstileSecretKey, "")
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()
	publicRateLimiter := middleware.NewPublicRateLimiter(10.0, 20)

	var metrics *middleware.Metrics
	if cfg.MetricsEnabled {
		metrics = middleware.NewMetrics()
	}

	pages := handler.NewPagesHandler(renderer, sess, members, payments, reports)
	h := handler.Handlers{
		Pages:    pages,
		Auth:     handler.NewAuthHandler(renderer, sess, accounts, events, loginProtection, turnstile),
		Members:  handler.NewMembersHandler(renderer, members, roles, importer.NewImporter(db, logger)),
		Payments: handler.NewPaymentsHandler(renderer, payments),
		Sailings: handler.NewSailingsHandler(renderer, sailings),
		Roles:    handler.NewRolesHandler(renderer, roles),
		Reports:  handler.NewReportsHandler(renderer, reports),
		Events:   handler.NewEventsHandler(renderer, events),
		Health:   handler.NewHealthHandler(db, sess, map[string]handler.Pinger{"cache": cacheManager}),
		Webhooks: handler.NewWebhooksHandler(cfg.GitHubWebhookSecret, deployer),

		Static: middleware.StaticCache(30*24*time.Hour, cfg.IsDevelopment())(
			http.StripPrefix("/static/", http.FileServer(http.FS(web.Static())))),

		LoginGuard:  loginProtection.Middleware(),
		PublicLimit: publicRateLimiter.Middleware(),
	}
	if metrics != nil {
		h.Metrics = metrics.Handler()
	}

	table, err := handler.NewTable(h)
	if err != nil {
		return fmt.Errorf("building route table: %w", err)
	}

	gates := &middleware.Gates{
		Session:            sess,
		LoginURL:           table.MustURL(handler.NameShowLogin),
		UserHomeURL:        table.MustURL(handler.NameUserHome),
		ErrorURL:           table.MustURL(handler.NameTechError),
		CSRFExemptPrefixes: cfg.CSRFExemptPrefixes,
		NotFound:           http.HandlerFunc(pages.NotFound),
		Metrics:            metrics,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sess.Start)
	r.Use(middleware.Language(sess))
	r.Use(middleware.CrossOrigin(middleware.DefaultCrossOriginConfig(
		[]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.CSRFExemptPrefixes)))

	r.Use(table.Resolver(r))
	r.Use(metrics.Middleware)
	r.Use(gates.Pipeline())
	table.Register(r)
	r.NotFound(pages.NotFound)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Current().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newMailer sends over SMTP when a host is configured and logs otherwise.
func newMailer(cfg *config.Config, logger *slog.Logger) (*email.Mailer, error) {
	var sender email.Sender = email.LogSender{Logger: logger}
	if cfg.SMTPEnabled() {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromName:  cfg.SMTPFromName,
			FromEmail: cfg.SMTPFromEmail,
			ReplyTo:   cfg.SMTPReplyTo,
		})
	} else {
		slog.Warn("smtp not configured, outgoing mail is only logged")
	}
	return email.NewMailer(sender, cfg.SiteAddress, logger)
}
