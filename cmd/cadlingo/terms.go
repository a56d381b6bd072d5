package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cadlingo/cadlingo/internal/cli"
	"github.com/cadlingo/cadlingo/internal/config"
	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/terminology"
)

func termsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Manage the terminology glossary",
	}

	cmd.AddCommand(termsListCmd())
	cmd.AddCommand(termsAddCmd())
	cmd.AddCommand(termsImportCmd())
	cmd.PersistentFlags().String("db", "", "Persistence database path")

	return cmd
}

func termsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted terminology entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			persist, err := openPersistence(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = persist.Close() }()

			entries, err := persist.LoadTerms(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load terminology: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No terminology entries.")
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-30s %-30s %s", "SOURCE", "TARGET", "DOMAIN")))
			for _, e := range entries {
				fmt.Printf("%-30s %-30s %s\n", e.SourceTerm, e.TargetTerm, e.Domain)
			}
			return nil
		},
	}
}

func termsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <source> <target>",
		Short: "Add or update one terminology entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, _ := cmd.Flags().GetString("domain")

			persist, err := openPersistence(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = persist.Close() }()

			entry := model.TerminologyEntry{
				SourceTerm: args[0],
				TargetTerm: args[1],
				Domain:     domain,
			}
			if err := persist.SaveTerms(cmd.Context(), []model.TerminologyEntry{entry}); err != nil {
				return fmt.Errorf("failed to save term: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("saved %q → %q", entry.SourceTerm, entry.TargetTerm)))
			return nil
		},
	}
	cmd.Flags().String("domain", "", "Domain tag for the entry")
	return cmd
}

func termsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <glossary.yaml>",
		Short: "Import a YAML glossary file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := terminology.LoadFile(config.ExpandPath(args[0]))
			if err != nil {
				return fmt.Errorf("failed to load glossary file: %w", err)
			}

			persist, err := openPersistence(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = persist.Close() }()

			entries := terms.Entries()
			if err := persist.SaveTerms(cmd.Context(), entries); err != nil {
				return fmt.Errorf("failed to save terminology: %w", err)
			}

			slog.Info("Imported glossary", "file", args[0], "entries", len(entries))
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d terms", len(entries))))
			return nil
		},
	}
}
