// Package store persists the harness run log: one record per executed
// suite case, for inspecting past runs and failure history without
// re-running the program under test.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/airspacetools/clicheck/internal/harness"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed run log. It implements harness.Recorder.
type Store struct {
	db *sql.DB
}

// Open creates or opens a run-log database at the given path. Use
// ":memory:" for an ephemeral store in tests.
//
// The database is configured with WAL mode, NORMAL synchronous mode and
// a 5-second busy timeout; the connection pool is capped at one
// connection since SQLite allows a single writer.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one run record.
func (s *Store) Record(ctx context.Context, rec harness.RunRecord) error {
	argv, err := json.Marshal(rec.Argv)
	if err != nil {
		return fmt.Errorf("failed to marshal argv: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (suite, case_name, argv, exit_code, pass, stderr_excerpt, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Suite, rec.Case, string(argv), rec.ExitCode, boolToInt(rec.Pass),
		rec.StderrExcerpt, rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// Runs returns the recorded cases for a suite in insertion order.
// An empty suite name returns every record.
func (s *Store) Runs(ctx context.Context, suite string) ([]harness.RunRecord, error) {
	query := `
		SELECT suite, case_name, argv, exit_code, pass, stderr_excerpt, started_at
		FROM runs`
	var args []any
	if suite != "" {
		query += " WHERE suite = ?"
		args = append(args, suite)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []harness.RunRecord
	for rows.Next() {
		var (
			rec     harness.RunRecord
			argv    string
			pass    int
			started string
		)
		if err := rows.Scan(&rec.Suite, &rec.Case, &argv, &rec.ExitCode, &pass, &rec.StderrExcerpt, &started); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		if err := json.Unmarshal([]byte(argv), &rec.Argv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal argv: %w", err)
		}
		rec.Pass = pass != 0
		rec.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
