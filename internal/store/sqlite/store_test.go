package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"csvload/internal/schema"
	"csvload/internal/store"
)

func observe(values ...string) schema.ColumnState {
	var c schema.ColumnState
	for _, v := range values {
		c.Observe(v)
	}
	return c
}

func openTestStore(t *testing.T) (store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(context.Background(), store.Config{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name  string
		state schema.ColumnState
		want  string
	}{
		{"narrow integer", observe("1", "200"), "TINYINT"},
		{"medium integer", observe("-5", "1000"), "SMALLINT"},
		{"wide integer", observe("1000000"), "INTEGER"},
		{"untouched default", schema.ColumnState{}, "INTEGER"},
		{"float", observe("2.5"), "REAL"},
		{"date", observe("2020-01-15"), "DATE"},
		{"boolean", observe("Yes"), "BOOLEAN"},
		{"vartext", observe("abcde"), "VARCHAR(5)"},
		{"longvartext", observe(strings.Repeat("a", 300)), "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (dialect{}).TypeName(tt.state); got != tt.want {
				t.Errorf("TypeName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateInsertQuery(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	spec := store.TableSpec{
		Name: "People",
		Columns: []store.ColumnSpec{
			{Name: "Id", State: observe("1", "2")},
			{Name: "Score", State: observe("3.5")},
			{Name: "Active", State: observe("Yes")},
			{Name: "Joined", State: observe("2020-01-15")},
			{Name: "Name", State: observe("Ann")},
		},
		PrimaryKey: "Id",
	}
	if err := s.CreateTable(ctx, spec); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	stmt := store.BuildInsert(s.Dialect(), "People",
		[]string{"Id", "Score", "Active", "Joined", "Name"},
		[][]string{
			{"1", "3.5", "1", "'2020-01-15'", "'Ann'"},
			{"2", "NULL", "0", "'2020-02-20'", "'Bea'"},
		})
	if err := s.Exec(ctx, stmt); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	n, err := s.RowCount(ctx, "People")
	if err != nil {
		t.Fatalf("RowCount: %v", err)
	}
	if n != 2 {
		t.Errorf("RowCount = %d, want 2", n)
	}

	// Verify values through an independent connection.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var name string
	var score sql.NullFloat64
	err = db.QueryRowContext(ctx, `SELECT "Name", "Score" FROM "People" WHERE "Id" = 2`).
		Scan(&name, &score)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if name != "Bea" {
		t.Errorf("Name = %q, want Bea", name)
	}
	if score.Valid {
		t.Errorf("Score = %v, want NULL", score)
	}
}

func TestEscapingRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	spec := store.TableSpec{
		Name:    "Notes",
		Columns: []store.ColumnSpec{{Name: "Body", State: observe("text")}},
	}
	if err := s.CreateTable(ctx, spec); err != nil {
		t.Fatal(err)
	}

	original := `it's a "quoted" 'value'`
	lit, err := s.Dialect().EncodeValue(schema.KindVarText, original)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Exec(ctx, store.BuildInsert(s.Dialect(), "Notes", []string{"Body"}, [][]string{{lit}})); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	sq := s.(*Store)
	var got string
	if err := sq.db.QueryRowContext(ctx, `SELECT "Body" FROM "Notes"`).Scan(&got); err != nil {
		t.Fatal(err)
	}
	if got != original {
		t.Errorf("round trip = %q, want %q", got, original)
	}
}

func TestCompact(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	spec := store.TableSpec{
		Name:    "T",
		Columns: []store.ColumnSpec{{Name: "V", State: observe("1")}},
	}
	if err := s.CreateTable(ctx, spec); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := s.Exec(ctx, `INSERT INTO "T" ("V") VALUES (1)`); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Compact(ctx, "T"); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	// The store stays usable on the same path after the swap.
	n, err := s.RowCount(ctx, "T")
	if err != nil {
		t.Fatalf("RowCount after compact: %v", err)
	}
	if n != 10 {
		t.Errorf("RowCount = %d, want 10", n)
	}
	if err := s.Exec(ctx, `INSERT INTO "T" ("V") VALUES (2)`); err != nil {
		t.Errorf("insert after compact: %v", err)
	}

	// No leftover temp files next to the store.
	leftovers, err := filepath.Glob(path + ".compact-*")
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("compaction left temp files: %v", leftovers)
	}
}

func TestNewReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fresh.db")

	for i := 0; i < 2; i++ {
		s, err := New(ctx, store.Config{Path: path})
		if err != nil {
			t.Fatalf("New #%d: %v", i, err)
		}
		spec := store.TableSpec{
			Name:    "Only",
			Columns: []store.ColumnSpec{{Name: "A", State: observe("1")}},
		}
		// A fresh file never complains about an existing table.
		if err := s.CreateTable(ctx, spec); err != nil {
			t.Fatalf("CreateTable #%d: %v", i, err)
		}
		s.Close()
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(context.Background(), store.Config{}); err == nil {
		t.Error("expected error for missing path")
	}
}
