// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olegiv/medlem-go/internal/importer"
)

var (
	importDryRun      bool
	importCreateRoles bool
	importAmount      float64
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import members from a CSV file",
	Long: `Reads a comma separated file with a header row. Efternamn is required;
other known columns include Förnamn, E-post, Födelsedatum, BesättningRoll,
UnderhållRoll and the yearly payment columns b24, b25 and so on. Members
whose e-mail address already exists are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	def := importer.DefaultImportOptions()
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without writing")
	importCmd.Flags().BoolVar(&importCreateRoles, "create-roles", def.CreateRoles, "Create roles that do not exist")
	importCmd.Flags().Float64Var(&importAmount, "amount", def.PaymentAmount, "Amount recorded for imported payments")
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	opts := importer.DefaultImportOptions()
	opts.DryRun = importDryRun
	opts.CreateRoles = importCreateRoles
	opts.PaymentAmount = importAmount

	imp := importer.NewImporter(db, logger(cmd.ErrOrStderr()))
	result, err := imp.ImportFromFile(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "batch %s: %d rows", result.BatchID, result.Rows)
	if result.DryRun {
		_, _ = fmt.Fprint(out, " (dry run)")
	}
	_, _ = fmt.Fprintln(out)
	for _, entity := range []string{importer.EntityMember, importer.EntityRole, importer.EntityPayment} {
		_, _ = fmt.Fprintf(out, "  created %-8s %d\n", entity, result.Created[entity])
	}
	for _, s := range result.Skipped {
		_, _ = fmt.Fprintf(out, "  skipped line %d: %s\n", s.Line, s.Message)
	}
	for _, f := range result.Failed {
		_, _ = fmt.Fprintf(out, "  failed line %d: %s\n", f.Line, f.Message)
	}
	if !result.Success() {
		return fmt.Errorf("%d rows failed", len(result.Failed))
	}
	return nil
}
