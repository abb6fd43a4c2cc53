// Package orchestrator wires one load run end to end: scan the input to
// infer the schema, create the target table, and stream the rows in. A run
// keeps no state between invocations; a crashed load is redone from
// scratch by running again.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"csvload/internal/config"
	"csvload/internal/loader"
	"csvload/internal/logging"
	"csvload/internal/progress"
	"csvload/internal/schema"
	"csvload/internal/source"
	"csvload/internal/store"
	"csvload/internal/util"
)

// Run performs one complete load per cfg.
func Run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	start := time.Now()
	logging.Info("run %s: loading %s into %s target", runID, cfg.Input, cfg.Target.Driver)

	src := source.NewCSVSource(cfg.Input, cfg.DelimiterRune())

	sch, err := schema.Infer(src, cfg.IgnoreSet())
	if err != nil {
		return fmt.Errorf("inferring schema: %w", err)
	}
	logging.Info("run %s: inferred %d columns over %d rows", runID, len(sch.Columns), sch.RowCount)

	tableSpec, err := buildTableSpec(cfg, sch)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Target)
	if err != nil {
		return fmt.Errorf("opening target store: %w", err)
	}
	defer st.Close()

	if err := st.CreateTable(ctx, tableSpec); err != nil {
		return err
	}

	prog := progress.New(sch.RowCount)
	l := &loader.Loader{
		Store:        st,
		Schema:       sch,
		Table:        tableSpec.Name,
		CompactEvery: cfg.CompactEvery,
		BatchSize:    cfg.BatchSize,
		Progress:     prog,
	}
	loaded, err := l.Run(ctx, src)
	if err != nil {
		return err
	}
	prog.Finish()

	stored, err := st.RowCount(ctx, tableSpec.Name)
	if err != nil {
		logging.Warn("run %s: row count check failed: %v", runID, err)
	} else if stored != loaded {
		logging.Warn("run %s: store reports %d rows, loader submitted %d", runID, stored, loaded)
	}

	logging.Info("run %s: loaded %d rows into %s in %s",
		runID, loaded, tableSpec.Name, time.Since(start).Round(time.Millisecond))
	return nil
}

// DescribeSchema runs inference only and returns a printable summary, one
// line per column. Used by --dry-run.
func DescribeSchema(cfg *config.Config) (string, error) {
	src := source.NewCSVSource(cfg.Input, cfg.DelimiterRune())
	sch, err := schema.Infer(src, cfg.IgnoreSet())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d columns, %d rows\n", len(sch.Columns), sch.RowCount)
	for _, col := range sch.Columns {
		detail := ""
		switch {
		case col.State.Kind == schema.KindInteger:
			detail = fmt.Sprintf(" [%d..%d]", col.State.Min, col.State.Max)
		case col.State.Kind.IsText():
			detail = fmt.Sprintf(" (size %d)", col.State.Size)
		}
		fmt.Fprintf(&b, "%-30s %s%s\n", util.SanitizeIdentifier(col.Field), col.State.Kind, detail)
	}
	return b.String(), nil
}

// buildTableSpec maps the inferred schema onto sanitized store identifiers.
// The table is named after the input file's base name.
func buildTableSpec(cfg *config.Config, sch *schema.Schema) (store.TableSpec, error) {
	base := strings.TrimSuffix(filepath.Base(cfg.Input), filepath.Ext(cfg.Input))
	name := util.SanitizeIdentifier(base)
	if name == "" {
		return store.TableSpec{}, fmt.Errorf("cannot derive table name from %q", cfg.Input)
	}

	spec := store.TableSpec{Name: name}
	for _, col := range sch.Columns {
		ident := util.SanitizeIdentifier(col.Field)
		if ident == "" {
			return store.TableSpec{}, fmt.Errorf("field %q sanitizes to an empty identifier", col.Field)
		}
		spec.Columns = append(spec.Columns, store.ColumnSpec{Name: ident, State: col.State})
	}

	if cfg.PrimaryKey != "" {
		if _, ok := sch.Lookup(cfg.PrimaryKey); !ok {
			return store.TableSpec{}, fmt.Errorf("primary key field %q not in input header", cfg.PrimaryKey)
		}
		spec.PrimaryKey = util.SanitizeIdentifier(cfg.PrimaryKey)
	}
	return spec, nil
}
