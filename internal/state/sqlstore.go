package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"site2tg/internal/domain"
)

// SQLStore keeps seen identities in a single-table sqlite database,
// for deployments where the JSON file outgrows hand inspection.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL opens the database, creating the schema when needed. In
// dry-run a database that does not exist yet is opened in-memory
// instead, so the run leaves no trace on disk.
func OpenSQL(path string, dryRun bool) (*SQLStore, error) {
	dsn := path
	if dryRun {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			dsn = ":memory:"
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &domain.StateError{Err: fmt.Errorf("open state db %s: %w", path, err)}
	}

	schema := `CREATE TABLE IF NOT EXISTS seen_items (
		identity    TEXT PRIMARY KEY,
		recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &domain.StateError{Err: fmt.Errorf("prepare state db %s: %w", path, err)}
	}

	return &SQLStore{db: db}, nil
}

// Contains reports whether the identity was already published.
func (s *SQLStore) Contains(ctx context.Context, identity string) (bool, error) {
	query, args, err := sq.Select("1").
		From("seen_items").
		Where(sq.Eq{"identity": identity}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, &domain.StateError{Err: fmt.Errorf("build query: %w", err)}
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StateError{Err: fmt.Errorf("query seen: %w", err)}
	}

	return true, nil
}

// Record inserts the identity; the insert is durable when it returns.
// Repeats are no-ops so a replayed run cannot fail here.
func (s *SQLStore) Record(ctx context.Context, identity string) error {
	query, args, err := sq.Insert("seen_items").
		Columns("identity").
		Values(identity).
		Suffix("ON CONFLICT (identity) DO NOTHING").
		ToSql()
	if err != nil {
		return &domain.StateError{Err: fmt.Errorf("build insert: %w", err)}
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &domain.StateError{Err: fmt.Errorf("record identity: %w", err)}
	}

	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
