// Package sqlite implements the file-backed target store on
// modernc.org/sqlite. It is the only backend with a client-side compaction
// cycle: the backing file is rewritten with VACUUM INTO and swapped in with
// an atomic rename.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"csvload/internal/logging"
	"csvload/internal/schema"
	"csvload/internal/store"
)

func init() {
	store.Register("sqlite", New)
}

// Store implements store.Store for SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// New creates a fresh store file at cfg.Path, replacing any existing file.
// The load owns the file exclusively for the duration of a run.
func New(ctx context.Context, cfg store.Config) (store.Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("sqlite: removing previous store: %w", err)
	}

	s := &Store{path: cfg.Path}
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("sqlite: opening %s: %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: pinging %s: %w", s.path, err)
	}
	s.db = db
	return nil
}

func (s *Store) Name() string { return "sqlite" }

func (s *Store) Dialect() store.Dialect { return dialect{} }

func (s *Store) CreateTable(ctx context.Context, spec store.TableSpec) error {
	ddl, err := store.BuildCreateTable(dialect{}, spec)
	if err != nil {
		return err
	}
	logging.Debug("sqlite DDL: %s", ddl)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

func (s *Store) Exec(ctx context.Context, statement string) error {
	_, err := s.db.ExecContext(ctx, statement)
	return err
}

func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", dialect{}.QuoteIdent(table))
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Compact rewrites the backing file to reclaim fragmented free space:
// VACUUM INTO a temp file next to the store, close the connection, rename
// the temp file over the original, reopen. The rename is the only
// destructive step, so a failure anywhere earlier leaves the pre-compaction
// file untouched.
func (s *Store) Compact(ctx context.Context, table string) error {
	tmp := filepath.Join(filepath.Dir(s.path),
		fmt.Sprintf("%s.compact-%s", filepath.Base(s.path), uuid.NewString()))

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO "+store.QuoteString(tmp)); err != nil {
		return fmt.Errorf("sqlite: vacuum into %s: %w", tmp, err)
	}
	if err := s.db.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("sqlite: closing before swap: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		// The original file is still in place; reopen it and fail the run.
		_ = os.Remove(tmp)
		if reopenErr := s.open(ctx); reopenErr != nil {
			return fmt.Errorf("sqlite: swap failed (%v) and reopen failed: %w", err, reopenErr)
		}
		return fmt.Errorf("sqlite: swapping compacted store: %w", err)
	}
	return s.open(ctx)
}

func (s *Store) Close() error { return s.db.Close() }

// dialect renders SQLite identifiers, types, and literals.
type dialect struct{}

func (dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (dialect) TypeName(state schema.ColumnState) string {
	switch state.Kind {
	case schema.KindInteger:
		switch state.IntWidth() {
		case schema.WidthUint8:
			return "TINYINT"
		case schema.WidthInt16:
			return "SMALLINT"
		default:
			return "INTEGER"
		}
	case schema.KindFloat:
		return "REAL"
	case schema.KindDate:
		return "DATE"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindVarText:
		return fmt.Sprintf("VARCHAR(%d)", max(state.Size, 1))
	default:
		return "TEXT"
	}
}

func (dialect) EncodeValue(kind schema.Kind, raw string) (string, error) {
	return store.Encode(kind, raw, "2006-01-02", "1", "0")
}
