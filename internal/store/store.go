// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/worklog/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout keeps fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoImports is returned when no import matches a lookup.
var ErrNoImports = errors.New("no imports found")

// Store wraps SQLite access for imported session records.
type Store struct {
	db *sql.DB
}

// Import describes one stored snapshot of a parsed log.
type Import struct {
	ID         string
	Source     string
	ImportedAt time.Time
	Ignored    model.WeekSet
	Sessions   int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			imported_at TEXT NOT NULL,
			ignored_weeks TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			import_id TEXT NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			start_hour INTEGER NOT NULL,
			start_minute INTEGER NOT NULL,
			end_hour INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			quality INTEGER NOT NULL,
			subject TEXT NOT NULL,
			PRIMARY KEY (import_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_imports_source ON imports(source, imported_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveImport stores records under a fresh import ID and drops earlier
// imports of the same source, so each log keeps only its latest snapshot.
func (s *Store) SaveImport(ctx context.Context, source string, records []model.SessionRecord, ignored model.WeekSet) (id string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE import_id IN (SELECT id FROM imports WHERE source = ?)`, source); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM imports WHERE source = ?`, source); err != nil {
		return "", err
	}

	id = uuid.NewString()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, imported_at, ignored_weeks) VALUES (?, ?, ?, ?)`,
		id, source, time.Now().UTC().Format(timeLayout), encodeWeeks(ignored),
	); err != nil {
		return "", err
	}

	if len(records) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO sessions (import_id, seq, year, month, day, start_hour, start_minute, end_hour, end_minute, quality, subject)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, r := range records {
			if _, err = stmt.ExecContext(ctx, id, i,
				r.Date.Year, r.Date.Month, r.Date.Day,
				r.Start.Hour, r.Start.Minute, r.End.Hour, r.End.Minute,
				r.Quality, r.Subject,
			); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListImports returns every stored import, newest first.
func (s *Store) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT i.id, i.source, i.imported_at, i.ignored_weeks, COUNT(s.seq)
		FROM imports i
		LEFT JOIN sessions s ON s.import_id = i.id
		GROUP BY i.id
		ORDER BY i.imported_at DESC, i.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var imports []Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return imports, nil
}

// LoadLatest returns the records of the newest import of source. An empty
// source selects the newest import overall.
func (s *Store) LoadLatest(ctx context.Context, source string) (Import, []model.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT i.id, i.source, i.imported_at, i.ignored_weeks,
			(SELECT COUNT(*) FROM sessions s WHERE s.import_id = i.id)
		FROM imports i
		WHERE (? = '' OR i.source = ?)
		ORDER BY i.imported_at DESC, i.rowid DESC
		LIMIT 1`, source, source)
	imp, err := scanImport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if source == "" {
				return Import{}, nil, ErrNoImports
			}
			return Import{}, nil, fmt.Errorf("%w for %s", ErrNoImports, source)
		}
		return Import{}, nil, err
	}
	records, err := s.loadSessions(ctx, imp.ID)
	if err != nil {
		return Import{}, nil, err
	}
	return imp, records, nil
}

func (s *Store) loadSessions(ctx context.Context, importID string) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, month, day, start_hour, start_minute, end_hour, end_minute, quality, subject
		FROM sessions
		WHERE import_id = ?
		ORDER BY seq ASC`, importID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.SessionRecord
	for rows.Next() {
		var r model.SessionRecord
		if err := rows.Scan(
			&r.Date.Year, &r.Date.Month, &r.Date.Day,
			&r.Start.Hour, &r.Start.Minute, &r.End.Hour, &r.End.Minute,
			&r.Quality, &r.Subject,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImport(row scanner) (Import, error) {
	var imp Import
	var importedAt, weeks string
	if err := row.Scan(&imp.ID, &imp.Source, &importedAt, &weeks, &imp.Sessions); err != nil {
		return Import{}, err
	}
	parsed, err := time.Parse(timeLayout, importedAt)
	if err != nil {
		return Import{}, err
	}
	imp.ImportedAt = parsed
	imp.Ignored, err = decodeWeeks(weeks)
	if err != nil {
		return Import{}, err
	}
	return imp, nil
}

func encodeWeeks(weeks model.WeekSet) string {
	sorted := weeks.Sorted()
	parts := make([]string, len(sorted))
	for i, w := range sorted {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ",")
}

func decodeWeeks(s string) (model.WeekSet, error) {
	weeks := model.WeekSet{}
	if s == "" {
		return weeks, nil
	}
	for _, part := range strings.Split(s, ",") {
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid ignored week %q: %w", part, err)
		}
		weeks[w] = struct{}{}
	}
	return weeks, nil
}
