// Package main contains the cadlingo CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cadlingo/cadlingo/internal/cli"
	"github.com/cadlingo/cadlingo/internal/common"
	"github.com/cadlingo/cadlingo/internal/config"
	"github.com/cadlingo/cadlingo/internal/docstore"
	"github.com/cadlingo/cadlingo/internal/engine"
	"github.com/cadlingo/cadlingo/internal/service"
	"github.com/cadlingo/cadlingo/internal/storage"
	"github.com/cadlingo/cadlingo/internal/terminology"
	"github.com/cadlingo/cadlingo/internal/translate"
)

func translateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a document's annotation text",
		Long: `Translate every translatable text fragment in a document.

The document is modified in place only after the whole job resolves and the
integrity validator confirms nothing but text content changed. When
validation fails, the file on disk is left untouched.

Examples:
  cadlingo translate --document plan.json --target-lang en
  cadlingo translate --document plan.json --target-lang de --terms glossary.yaml
  cadlingo translate --document plan.json --target-lang en --hold-review`,
		RunE: runTranslate,
	}

	// Flags
	cmd.Flags().StringP("document", "d", "", "Document file to translate (required)")
	cmd.Flags().StringP("target-lang", "t", "", "Target language (required)")
	cmd.Flags().String("source-lang", "", "Source language hint for the provider")
	cmd.Flags().String("terms", "", "Terminology glossary file (YAML)")
	cmd.Flags().String("db", "", "Persistence database path")
	cmd.Flags().IntP("concurrency", "c", 4, "Concurrent provider calls")
	cmd.Flags().Int("retries", 3, "Retry budget per provider call")
	cmd.Flags().Float64("review-threshold", 70, "Quality score below which items are flagged for review")
	cmd.Flags().Float64("max-length-ratio", 2.0, "Length multiple above which a translation is penalized")
	cmd.Flags().Bool("hold-review", false, "Keep review-flagged items out of the document")
	cmd.Flags().Bool("no-dedupe", false, "Disable collapsing identical source strings into one call")
	cmd.Flags().Bool("dry-run", false, "Run the pipeline without writing the document file")

	// Bind to viper (errors are rare and can be ignored in practice)
	_ = viper.BindPFlag("job.concurrency", cmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("job.retries", cmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("job.review_threshold", cmd.Flags().Lookup("review-threshold"))
	_ = viper.BindPFlag("job.max_length_ratio", cmd.Flags().Lookup("max-length-ratio"))

	return cmd
}

func runTranslate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	docPath, _ := cmd.Flags().GetString("document")
	targetLang, _ := cmd.Flags().GetString("target-lang")
	sourceLang, _ := cmd.Flags().GetString("source-lang")
	termsPath, _ := cmd.Flags().GetString("terms")
	holdReview, _ := cmd.Flags().GetBool("hold-review")
	noDedupe, _ := cmd.Flags().GetBool("no-dedupe")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if docPath == "" {
		return fmt.Errorf("--document is required")
	}
	if targetLang == "" {
		return fmt.Errorf("--target-lang is required")
	}

	slog.Info("Starting document translation", "document", docPath, "target_language", targetLang)

	store, err := docstore.Open(config.ExpandPath(docPath))
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	provider, err := buildProvider()
	if err != nil {
		return err
	}

	persist, err := openPersistence(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := persist.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	terms, err := loadTerminology(ctx, termsPath, persist)
	if err != nil {
		return err
	}

	opts := service.DefaultJobOptions()
	opts.ConcurrencyLimit = viper.GetInt("job.concurrency")
	opts.RetryBudget = viper.GetInt("job.retries")
	opts.ReviewThreshold = viper.GetFloat64("job.review_threshold")
	opts.MaxLengthRatio = viper.GetFloat64("job.max_length_ratio")
	opts.HoldReviewItems = holdReview
	opts.Dedupe = !noDedupe
	opts.SourceLanguage = sourceLang

	// OnProgress fires from worker goroutines; the bar is created on the
	// first call and is itself safe for concurrent Set.
	var (
		barOnce sync.Once
		bar     *progressbar.ProgressBar
	)
	opts.OnProgress = func(done, total int) {
		barOnce.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("translating"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		})
		_ = bar.Set(done)
	}

	eng := engine.New(store, provider, terms, persist, slog.Default())
	report, err := eng.Run(ctx, targetLang, opts)
	if err != nil {
		return fmt.Errorf("translation job failed: %w", err)
	}

	fmt.Println(cli.RenderJobReport(report))
	if review := cli.RenderReviewItems(report.Items); review != "" {
		fmt.Println(cli.RenderBox("Needs Review", review))
	}

	if report.RollbackRecommended {
		// The store mutates in memory only; skipping Save leaves the file
		// exactly as it was.
		return common.NewUserError("integrity validation failed; document file left untouched", common.ErrIntegrityCheck)
	}
	if dryRun {
		slog.Info("Dry run: document file not written")
		return nil
	}

	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	slog.Info("Document written", "path", docPath)

	return nil
}

// buildProvider constructs the configured translation provider.
func buildProvider() (service.Provider, error) {
	cfg := translate.ProviderConfig{
		APIKey:  viper.GetString("provider.api_key"),
		Model:   viper.GetString("provider.model"),
		BaseURL: viper.GetString("provider.base_url"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	provider, err := translate.NewOpenAIProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation provider: %w", err)
	}
	return provider, nil
}

// openPersistence opens the terminology/memory database for the invoking
// command, creating it if needed. The --db flag wins over the configured
// database.path; viper cannot carry the flag itself because several commands
// declare it and a shared key binding is last-registered-wins.
func openPersistence(cmd *cobra.Command) (service.Persistence, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("database.path")
	}
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	db, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadTerminology merges persisted terms with an optional glossary file. File
// entries win on conflict and are persisted back for future jobs.
func loadTerminology(ctx context.Context, termsPath string, persist service.Persistence) (*terminology.Store, error) {
	terms := terminology.NewStore()

	persisted, err := persist.LoadTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted terminology: %w", err)
	}
	for _, e := range persisted {
		terms.Add(e)
	}

	if termsPath == "" {
		return terms, nil
	}

	fileTerms, err := terminology.LoadFile(config.ExpandPath(termsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load glossary file: %w", err)
	}
	for _, e := range fileTerms.Entries() {
		terms.Add(e)
	}
	if err := persist.SaveTerms(ctx, fileTerms.Entries()); err != nil {
		slog.Warn("Failed to persist glossary terms", "error", err)
	}

	slog.Info("Loaded terminology", "entries", terms.Len())
	return terms, nil
}
