// Package sqlite persists the Local Store in a SQLite database through
// mattn/go-sqlite3. Nested values (scouter refs, payloads, alliances) are
// stored as JSON text columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

const dsnOptions = "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store implements repository.Store on SQLite.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

var _ repository.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger.Get().Named("sqlite")}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Debug(ctx, "sqlite store ready", logger.String("path", path))
	return s, nil
}

// Update implements repository.Store.
func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.run(ctx, true, fn)
}

// View implements repository.Store.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *Store) run(ctx context.Context, writable bool, fn func(tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&tx{tx: sqlTx, writable: writable}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error(ctx, "rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if !writable {
		return sqlTx.Rollback()
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close implements repository.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func toJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func fromJSON(ns sql.NullString, v any) error {
	if !ns.Valid {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), v)
}

func notFound(err error, table string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %v", repository.ErrNotFound, table, key)
	}
	return fmt.Errorf("query %s: %w", table, err)
}
