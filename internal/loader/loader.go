// Package loader streams rows from a record source into the target table
// using the frozen schema produced by inference. Rows are encoded into
// store-specific literals, submitted as ordered multi-row inserts, and the
// store is compacted at a fixed row-count cadence to bound storage growth.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"csvload/internal/logging"
	"csvload/internal/progress"
	"csvload/internal/schema"
	"csvload/internal/source"
	"csvload/internal/store"
	"csvload/internal/util"
)

// DefaultBatchSize is the number of rows per insert statement when the
// caller does not choose one.
const DefaultBatchSize = 500

// DefaultCompactEvery is the default compaction cadence in rows.
const DefaultCompactEvery = 100000

// Loader streams rows into one table of a target store.
type Loader struct {
	Store  store.Store
	Schema *schema.Schema
	Table  string

	// CompactEvery is the compaction cadence in rows; 0 or negative
	// disables compaction entirely.
	CompactEvery int64

	// BatchSize caps the rows per insert statement. Batches never span a
	// compaction boundary, so the cadence stays exact.
	BatchSize int

	// Progress, when non-nil, receives one Add per committed row.
	Progress *progress.Tracker
}

// Run re-reads the source and loads every row in input order. The pipeline
// is strictly sequential: one batch in flight, each insert acknowledged
// before the next begins. On error the table keeps whatever rows were
// already committed.
func (l *Loader) Run(ctx context.Context, src source.Source) (int64, error) {
	batchSize := l.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	// Columns are the schema's fields; the header may contain more (the
	// excluded ones), so each schema field is located in the header once.
	fields := l.Schema.Fields()
	columns := make([]string, len(fields))
	kinds := make([]schema.Kind, len(fields))
	indexes := make([]int, len(fields))
	header := rows.Header()
	for i, field := range fields {
		st, _ := l.Schema.Lookup(field)
		columns[i] = util.SanitizeIdentifier(field)
		kinds[i] = st.Kind
		indexes[i] = -1
		for j, h := range header {
			if h == field {
				indexes[i] = j
			}
		}
	}

	dialect := l.Store.Dialect()
	batch := make([][]string, 0, batchSize)
	var loaded, sinceCompact int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		stmt := store.BuildInsert(dialect, l.Table, columns, batch)
		if err := l.Store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("inserting rows %d..%d: %w", loaded+1, loaded+int64(len(batch)), err)
		}
		loaded += int64(len(batch))
		sinceCompact += int64(len(batch))
		if l.Progress != nil {
			l.Progress.Add(int64(len(batch)))
		}
		batch = batch[:0]
		return nil
	}

	var line int64
	for {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("reading input: %w", err)
		}
		line++

		encoded := make([]string, len(columns))
		for i := range columns {
			raw := ""
			if idx := indexes[i]; idx >= 0 && idx < len(row) {
				raw = row[idx]
			}
			lit, err := dialect.EncodeValue(kinds[i], raw)
			if err != nil {
				return loaded, fmt.Errorf("row %d, column %s: %w", line, columns[i], err)
			}
			encoded[i] = lit
		}
		batch = append(batch, encoded)

		full := len(batch) >= batchSize
		atBoundary := l.CompactEvery > 0 && sinceCompact+int64(len(batch)) >= l.CompactEvery
		if full || atBoundary {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
		if l.CompactEvery > 0 && sinceCompact >= l.CompactEvery {
			if err := l.compact(ctx, loaded); err != nil {
				return loaded, err
			}
			sinceCompact = 0
		}
	}

	if err := flush(); err != nil {
		return loaded, err
	}
	if l.CompactEvery > 0 && sinceCompact >= l.CompactEvery {
		if err := l.compact(ctx, loaded); err != nil {
			return loaded, err
		}
	}

	return loaded, nil
}

func (l *Loader) compact(ctx context.Context, loaded int64) error {
	logging.Debug("compacting store after %d rows", loaded)
	if err := l.Store.Compact(ctx, l.Table); err != nil {
		return fmt.Errorf("compacting store: %w", err)
	}
	return nil
}
