// Package postgres implements the target store on PostgreSQL via the pgx
// stdlib adapter. Compaction maps to VACUUM FULL, which rewrites the table
// server-side; there is no client file swap.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"csvload/internal/logging"
	"csvload/internal/schema"
	"csvload/internal/store"
)

func init() {
	store.Register("postgres", New)
}

// Store implements store.Store for PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to the configured database. The target table is created
// fresh by CreateTable; the database itself must already exist.
func New(ctx context.Context, cfg store.Config) (store.Store, error) {
	db, err := sql.Open("pgx", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: opening connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	logging.Debug("connected to postgres target %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return &Store{db: db}, nil
}

// BuildDSN constructs a postgres:// URL with credentials URL-escaped, so
// passwords containing '@', ':' or '/' survive intact.
func BuildDSN(cfg store.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password),
		host, port, url.QueryEscape(cfg.Database), sslmode)
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Dialect() store.Dialect { return dialect{} }

func (s *Store) CreateTable(ctx context.Context, spec store.TableSpec) error {
	ddl, err := store.BuildCreateTable(dialect{}, spec)
	if err != nil {
		return err
	}
	logging.Debug("postgres DDL: %s", ddl)
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

// Compact rewrites the table in place to reclaim dead space.
func (s *Store) Compact(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM FULL "+dialect{}.QuoteIdent(table)); err != nil {
		return fmt.Errorf("postgres: vacuum full %s: %w", table, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// dialect renders PostgreSQL identifiers, types, and literals.
type dialect struct{}

func (dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (dialect) TypeName(state schema.ColumnState) string {
	switch state.Kind {
	case schema.KindInteger:
		// No unsigned types: both narrow widths land on smallint.
		switch state.IntWidth() {
		case schema.WidthUint8, schema.WidthInt16:
			return "smallint"
		default:
			return "integer"
		}
	case schema.KindFloat:
		return "double precision"
	case schema.KindDate:
		return "date"
	case schema.KindBoolean:
		return "boolean"
	case schema.KindVarText:
		return fmt.Sprintf("varchar(%d)", max(state.Size, 1))
	default:
		return "text"
	}
}

func (dialect) EncodeValue(kind schema.Kind, raw string) (string, error) {
	return store.Encode(kind, raw, "2006-01-02", "TRUE", "FALSE")
}
