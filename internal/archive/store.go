// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists finished conversions and answers search
// queries over them. Documents themselves live as Markdown files in the
// output directory; the store keeps the index.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/convert-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "conversions.db"

	snippetLen = 240
)

// Record is one archived conversion.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Category   string    `json:"category"`
	Converter  string    `json:"converter"`
	Success    bool      `json:"success"`
	OutputPath string    `json:"outputPath,omitempty"`
	Snippet    string    `json:"snippet"`
	WordCount  int       `json:"wordCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store manages the conversion index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the index at dataDir/index/conversions.db,
// creating the schema if needed.
func NewStore(dataDir string) (*Store, error) {
	dbDir := filepath.Join(dataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxResults: 20}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT,
			category TEXT,
			converter TEXT,
			success INTEGER NOT NULL,
			output_path TEXT,
			snippet TEXT,
			word_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_name ON conversions(name)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save upserts the record for one finished conversion.
func (s *Store) Save(ctx context.Context, id string, res *types.Result, outputPath string) (*Record, error) {
	rec := &Record{
		ID:         id,
		Name:       res.Name,
		Type:       res.Type,
		Category:   string(res.Category),
		Converter:  res.ConverterName(),
		Success:    res.Success,
		OutputPath: outputPath,
		Snippet:    makeSnippet(res.Content),
		WordCount:  len(strings.Fields(res.Content)),
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, name, type, category, converter, success, output_path, snippet, word_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, type=excluded.type, category=excluded.category,
			converter=excluded.converter, success=excluded.success,
			output_path=excluded.output_path, snippet=excluded.snippet,
			word_count=excluded.word_count`,
		rec.ID, rec.Name, rec.Type, rec.Category, rec.Converter,
		boolToInt(rec.Success), rec.OutputPath, rec.Snippet, rec.WordCount,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("saving conversion %s: %w", id, err)
	}
	return rec, nil
}

// Get returns the record for one conversion id, or sql.ErrNoRows
// wrapped with context when it is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, category, converter, success, output_path, snippet, word_count, created_at
		 FROM conversions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("loading conversion %s: %w", id, err)
	}
	return rec, nil
}

// Search matches the query against names and snippets, newest first.
func (s *Store) Search(ctx context.Context, query string) ([]Record, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, category, converter, success, output_path, snippet, word_count, created_at
		 FROM conversions
		 WHERE name LIKE ? OR snippet LIKE ?
		 ORDER BY created_at DESC
		 LIMIT ?`, pattern, pattern, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching conversions: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Recent returns the newest records, up to the store's result cap.
func (s *Store) Recent(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, category, converter, success, output_path, snippet, word_count, created_at
		 FROM conversions ORDER BY created_at DESC LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var success int
	var created string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.Category,
		&rec.Converter, &success, &rec.OutputPath, &rec.Snippet,
		&rec.WordCount, &created)
	if err != nil {
		return nil, err
	}
	rec.Success = success != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// makeSnippet keeps the first non-heading lines of the document, capped
// for index storage.
func makeSnippet(content string) string {
	var parts []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "---" || strings.HasPrefix(line, "#") {
			continue
		}
		parts = append(parts, line)
		if len(strings.Join(parts, " ")) >= snippetLen {
			break
		}
	}
	snippet := strings.Join(parts, " ")
	if len(snippet) > snippetLen {
		snippet = snippet[:snippetLen]
	}
	return snippet
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
