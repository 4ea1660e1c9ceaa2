package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"kitacli/internal/extract"
)

// SQLiteStore mirrors result tables into a SQLite database, one table per
// report type, so downstream analysis can query across runs without re-parsing
// the CSVs.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceTable recreates the table for one report type and loads all rows in a
// single transaction. Extraction is batch-oriented, so a full replace is
// simpler and safer than reconciling deltas.
func (s *SQLiteStore) ReplaceTable(ctx context.Context, table *extract.Table) error {
	name := quoteIdent(table.Name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table.Name, err)
	}

	cols := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		cols = append(cols, quoteIdent(col)+" TEXT")
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(table.Columns)), ", ")
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, placeholders)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", table.Name, err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		args := make([]any, len(table.Columns))
		for j := range table.Columns {
			if j < len(row) && row[j] != "" {
				args[j] = row[j]
			} else {
				args[j] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table.Name, err)
	}
	slog.Info("table stored in database",
		slog.String("table", table.Name),
		slog.Int("rows", table.Len()))
	return nil
}

// quoteIdent wraps an identifier in double quotes, escaping embedded quotes.
// Column names come from config files, not user data, but quoting keeps odd
// header names from breaking the statements.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
