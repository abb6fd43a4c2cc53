// Package mssql implements the target store on SQL Server. Compaction maps
// to DBCC SHRINKDATABASE, which reclaims free pages server-side.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"csvload/internal/logging"
	"csvload/internal/schema"
	"csvload/internal/store"
)

func init() {
	store.Register("mssql", New)
}

// Store implements store.Store for SQL Server.
type Store struct {
	db       *sql.DB
	database string
}

func New(ctx context.Context, cfg store.Config) (store.Store, error) {
	// Compact shrinks by database name, so the name cannot be left blank.
	if cfg.Database == "" {
		return nil, fmt.Errorf("mssql: database name is required")
	}
	db, err := sql.Open("sqlserver", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("mssql: opening connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	logging.Debug("connected to mssql target %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return &Store{db: db, database: cfg.Database}, nil
}

// BuildDSN constructs a sqlserver:// URL with credentials URL-escaped.
func BuildDSN(cfg store.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	q := url.Values{}
	q.Set("database", cfg.Database)
	encrypt := true
	if cfg.Encrypt != nil {
		encrypt = *cfg.Encrypt
	}
	q.Set("encrypt", fmt.Sprintf("%t", encrypt))
	if cfg.TrustCert {
		q.Set("trustservercertificate", "true")
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (s *Store) Name() string { return "mssql" }

func (s *Store) Dialect() store.Dialect { return dialect{} }

func (s *Store) CreateTable(ctx context.Context, spec store.TableSpec) error {
	ddl, err := store.BuildCreateTable(dialect{}, spec)
	if err != nil {
		return err
	}
	logging.Debug("mssql DDL: %s", ddl)
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

// Compact asks the server to release unused pages in the whole database.
func (s *Store) Compact(ctx context.Context, table string) error {
	stmt := fmt.Sprintf("DBCC SHRINKDATABASE (%s)", dialect{}.QuoteIdent(s.database))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql: shrink database %s: %w", s.database, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// dialect renders SQL Server identifiers, types, and literals.
type dialect struct{}

func (dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (dialect) TypeName(state schema.ColumnState) string {
	switch state.Kind {
	case schema.KindInteger:
		// tinyint is unsigned 0..255, an exact fit for the narrow width.
		switch state.IntWidth() {
		case schema.WidthUint8:
			return "tinyint"
		case schema.WidthInt16:
			return "smallint"
		default:
			return "int"
		}
	case schema.KindFloat:
		return "float"
	case schema.KindDate:
		return "date"
	case schema.KindBoolean:
		return "bit"
	case schema.KindVarText:
		return fmt.Sprintf("varchar(%d)", max(state.Size, 1))
	default:
		return "varchar(max)"
	}
}

// The yyyymmdd form is the one date literal SQL Server parses identically
// under every language and dateformat setting.
func (dialect) EncodeValue(kind schema.Kind, raw string) (string, error) {
	return store.Encode(kind, raw, "20060102", "1", "0")
}
