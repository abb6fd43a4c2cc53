// Package store defines the target store abstraction: a relational store
// that can create typed tables from an inferred schema, execute textual
// insert statements, and compact its backing storage.
//
// Backends register themselves via Register in an init function:
//
//	func init() { store.Register("sqlite", New) }
//
// and are selected by Config.Driver.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"csvload/internal/schema"
)

// Config holds target store connection settings. Path applies to the
// file-backed sqlite driver; the server fields apply to postgres and mssql.
type Config struct {
	Driver string `yaml:"driver"`

	// sqlite
	Path string `yaml:"path"`

	// server stores
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Database  string `yaml:"database"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	SSLMode   string `yaml:"ssl_mode"`          // postgres: disable, require, ...
	Encrypt   *bool  `yaml:"encrypt"`           // mssql
	TrustCert bool   `yaml:"trust_server_cert"` // mssql
}

// ColumnSpec is one column of a table to create: the sanitized identifier
// plus the frozen inference state that decides its physical type.
type ColumnSpec struct {
	Name  string
	State schema.ColumnState
}

// TableSpec describes the table to create. PrimaryKey, when non-empty,
// names the single column declared as the primary key; it must match one of
// the column names.
type TableSpec struct {
	Name       string
	Columns    []ColumnSpec
	PrimaryKey string
}

// Dialect renders identifiers, column types, and value literals for one
// backend. EncodeValue implements the per-kind literal encoding: empty
// values become the null marker, booleans map the two canonical literals to
// the backend's fixed encodings, dates are reformatted into the backend's
// unambiguous literal, text is quoted with embedded quotes doubled, and
// numbers pass through bare.
type Dialect interface {
	QuoteIdent(name string) string
	TypeName(state schema.ColumnState) string
	EncodeValue(kind schema.Kind, raw string) (string, error)
}

// Store is a connected target store.
type Store interface {
	Name() string
	Dialect() Dialect

	CreateTable(ctx context.Context, spec TableSpec) error
	Exec(ctx context.Context, statement string) error
	RowCount(ctx context.Context, table string) (int64, error)

	// Compact reclaims free space in the backing storage. File-backed
	// stores rewrite the backing file and swap it atomically; server
	// stores compact the named table in place.
	Compact(ctx context.Context, table string) error

	Close() error
}

// Factory creates a connected store from its config.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var factories = map[string]Factory{}

// Register makes a backend available under the given driver name.
// Registering the same name twice panics.
func Register(name string, f Factory) {
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("store: duplicate driver %q", name))
	}
	factories[name] = f
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	f, ok := factories[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown store driver %q (available: %s)",
			cfg.Driver, strings.Join(Drivers(), ", "))
	}
	return f(ctx, cfg)
}

// BuildCreateTable renders the CREATE TABLE statement for spec using d.
// Every column is nullable except booleans; the primary key column, if any,
// is declared inline.
func BuildCreateTable(d Dialect, spec TableSpec) (string, error) {
	if spec.Name == "" {
		return "", fmt.Errorf("table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", spec.Name)
	}

	pkSeen := spec.PrimaryKey == ""
	parts := make([]string, 0, len(spec.Columns))
	for _, col := range spec.Columns {
		def := d.QuoteIdent(col.Name) + " " + d.TypeName(col.State)
		if col.State.Kind == schema.KindBoolean {
			def += " NOT NULL"
		}
		if col.Name == spec.PrimaryKey {
			def += " PRIMARY KEY"
			pkSeen = true
		}
		parts = append(parts, def)
	}
	if !pkSeen {
		return "", fmt.Errorf("primary key column %q not in schema", spec.PrimaryKey)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		d.QuoteIdent(spec.Name), strings.Join(parts, ",\n  ")), nil
}
