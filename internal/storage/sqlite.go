// Package storage persists terminology and translation memory across jobs
// using SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/cadlingo/cadlingo/internal/model"
)

// SQLiteStore implements the service.Persistence interface. Persistence is
// optional for correctness: a job without a store still satisfies every
// consistency guarantee within its own pass.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and if necessary creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS terminology (
			source_term TEXT PRIMARY KEY,
			target_term TEXT NOT NULL,
			domain      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS translation_memory (
			source_text TEXT NOT NULL,
			target_lang TEXT NOT NULL,
			translated  TEXT NOT NULL,
			confidence  REAL NOT NULL DEFAULT 0,
			origin      TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (source_text, target_lang)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadTerms returns all persisted terminology entries.
func (s *SQLiteStore) LoadTerms(ctx context.Context) ([]model.TerminologyEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term, domain FROM terminology ORDER BY source_term`)
	if err != nil {
		return nil, fmt.Errorf("failed to query terminology: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.TerminologyEntry
	for rows.Next() {
		var e model.TerminologyEntry
		if err := rows.Scan(&e.SourceTerm, &e.TargetTerm, &e.Domain); err != nil {
			return nil, fmt.Errorf("failed to scan terminology row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveTerms upserts terminology entries.
func (s *SQLiteStore) SaveTerms(ctx context.Context, entries []model.TerminologyEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO terminology (source_term, target_term, domain)
		VALUES (?, ?, ?)
		ON CONFLICT(source_term) DO UPDATE SET
			target_term = excluded.target_term,
			domain = excluded.domain`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.SourceTerm, e.TargetTerm, e.Domain); err != nil {
			return fmt.Errorf("failed to save term %q: %w", e.SourceTerm, err)
		}
	}

	return tx.Commit()
}

// ClearMemory deletes all memory entries for one target language.
func (s *SQLiteStore) ClearMemory(ctx context.Context, targetLanguage string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM translation_memory WHERE target_lang = ?`, targetLanguage)
	if err != nil {
		return 0, fmt.Errorf("failed to clear translation memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared entries: %w", err)
	}
	return int(n), nil
}

// LoadMemory returns all persisted memory entries for one target language,
// keyed by normalized source text.
func (s *SQLiteStore) LoadMemory(ctx context.Context, targetLanguage string) (map[string]model.TranslationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_text, translated, confidence, origin
		FROM translation_memory
		WHERE target_lang = ?`, targetLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to query translation memory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]model.TranslationResult)
	for rows.Next() {
		var source string
		var res model.TranslationResult
		var origin string
		if err := rows.Scan(&source, &res.Text, &res.Confidence, &origin); err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		res.Origin = model.TranslationOrigin(origin)
		entries[source] = res
	}
	return entries, rows.Err()
}

// SaveMemory upserts memory entries for one target language.
func (s *SQLiteStore) SaveMemory(ctx context.Context, targetLanguage string, entries map[string]model.TranslationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO translation_memory (source_text, target_lang, translated, confidence, origin)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_text, target_lang) DO UPDATE SET
			translated = excluded.translated,
			confidence = excluded.confidence,
			origin = excluded.origin`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for source, res := range entries {
		if _, err := stmt.ExecContext(ctx, source, targetLanguage, res.Text, res.Confidence, string(res.Origin)); err != nil {
			return fmt.Errorf("failed to save memory entry %q: %w", source, err)
		}
	}

	return tx.Commit()
}
