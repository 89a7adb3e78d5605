// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olegiv/medlem-go/internal/config"
	"github.com/olegiv/medlem-go/internal/email"
)

var mailTestCmd = &cobra.Command{
	Use:   "mail-test [address]",
	Short: "Send a test mail with the server's SMTP settings",
	Long: `Sends the test template to the given address, or to
MEDLEM_ADMIN_NOTIFY_EMAIL when no address is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if !cfg.SMTPEnabled() {
			return fmt.Errorf("MEDLEM_SMTP_HOST is not set")
		}

		to := cfg.AdminNotifyTo
		if len(args) == 1 {
			to = args[0]
		}
		if to == "" {
			return fmt.Errorf("no recipient: pass an address or set MEDLEM_ADMIN_NOTIFY_EMAIL")
		}

		sender := email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromName:  cfg.SMTPFromName,
			FromEmail: cfg.SMTPFromEmail,
			ReplyTo:   cfg.SMTPReplyTo,
		})
		mailer, err := email.NewMailer(sender, cfg.SiteAddress, logger(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		if err := mailer.Send(cmd.Context(), email.TypeTest, to, email.Data{Email: to}); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "test mail sent to %s\n", to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailTestCmd)
}
