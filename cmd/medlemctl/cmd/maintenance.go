// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/medlem-go/internal/auth"
	"github.com/olegiv/medlem-go/internal/service"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/version"
)

var (
	migrateStatus bool
	purgeEvents   time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if migrateStatus {
			return printMigrations(cmd.OutOrStdout(), db)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the argon2id hash of a password",
	Long:  `Reads the password from the argument, or from the first line of stdin.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("empty password")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var purgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete expired registration and password reset tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		n, err := service.NewAccountService(db, nil, "").PurgeTokens(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d tokens removed\n", n)

		if purgeEvents > 0 {
			n, err := service.NewEventService(db, nil).DeleteOldEvents(cmd.Context(), purgeEvents)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d events removed\n", n)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "medlemctl %s\n", version.Current())
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print the migration status after migrating")
	purgeTokensCmd.Flags().DurationVar(&purgeEvents, "events-older-than", 0, "Also delete events older than this")
	rootCmd.AddCommand(migrateCmd, hashPasswordCmd, purgeTokensCmd, versionCmd)
}

func printMigrations(w io.Writer, db *sql.DB) error {
	migrations, err := store.MigrationStatus(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		state := "pending"
		if m.Applied {
			state = "applied " + m.AppliedAt.Format(time.DateTime)
		}
		_, _ = fmt.Fprintf(w, "%05d  %-24s %s\n", m.Version, m.Path, state)
	}
	return nil
}
