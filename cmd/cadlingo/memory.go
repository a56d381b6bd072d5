package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cadlingo/cadlingo/internal/cli"
)

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the persisted translation memory",
	}

	cmd.AddCommand(memoryListCmd())
	cmd.AddCommand(memoryClearCmd())
	cmd.PersistentFlags().String("db", "", "Persistence database path")

	return cmd
}

func memoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"show"},
		Short:   "List memory entries for one target language",
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetLang, _ := cmd.Flags().GetString("target-lang")
			if targetLang == "" {
				return fmt.Errorf("--target-lang is required")
			}

			persist, err := openPersistence(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = persist.Close() }()

			entries, err := persist.LoadMemory(cmd.Context(), targetLang)
			if err != nil {
				return fmt.Errorf("failed to load translation memory: %w", err)
			}
			if len(entries) == 0 {
				fmt.Printf("No memory entries for %s.\n", targetLang)
				return nil
			}

			sources := make([]string, 0, len(entries))
			for source := range entries {
				sources = append(sources, source)
			}
			sort.Strings(sources)

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-40s %-40s %s", "SOURCE", "TRANSLATION", "ORIGIN")))
			for _, source := range sources {
				res := entries[source]
				fmt.Printf("%-40s %-40s %s\n", source, res.Text, res.Origin)
			}
			return nil
		},
	}
	cmd.Flags().StringP("target-lang", "t", "", "Target language (required)")
	return cmd
}

func memoryClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all memory entries for one target language",
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetLang, _ := cmd.Flags().GetString("target-lang")
			if targetLang == "" {
				return fmt.Errorf("--target-lang is required")
			}

			persist, err := openPersistence(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = persist.Close() }()

			n, err := persist.ClearMemory(cmd.Context(), targetLang)
			if err != nil {
				return fmt.Errorf("failed to clear translation memory: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("cleared %d memory entries for %s", n, targetLang)))
			return nil
		},
	}
	cmd.Flags().StringP("target-lang", "t", "", "Target language (required)")
	return cmd
}
