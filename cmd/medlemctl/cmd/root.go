// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd holds the medlemctl commands.
package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/medlem-go/internal/store"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "medlemctl",
	Short: "Maintenance tool for the membership register",
	Long: `medlemctl imports members, runs migrations and purges expired data
in the database used by the medlem server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))
	},
}

// Execute runs the root command.
func Execute() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	def := os.Getenv("MEDLEM_DB_PATH")
	if def == "" {
		def = "./data/medlem.db"
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", def, "SQLite database path")
}

// openDB opens the database and brings its schema up to date.
func openDB() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewDB(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
