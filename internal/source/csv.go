// Package source reads rows of named text fields from delimited input
// files. A Source can be opened any number of times; every Open starts a
// fresh scan from the beginning, which is what the two-pass inference and
// load stages rely on.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Rows is a cursor over the data rows of an opened source.
type Rows interface {
	// Header returns the field names in input order.
	Header() []string

	// Next returns the next data row aligned to Header: one possibly-empty
	// string per header field. Returns io.EOF after the last row.
	Next() ([]string, error)

	Close() error
}

// Source yields rows of named text fields.
type Source interface {
	Open() (Rows, error)
}

// CSVSource reads a delimited text file with a mandatory header row.
type CSVSource struct {
	Path      string
	Delimiter rune
}

// NewCSVSource returns a source for path. A zero delimiter defaults to ','.
func NewCSVSource(path string, delimiter rune) *CSVSource {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVSource{Path: path, Delimiter: delimiter}
}

// Open starts a new scan. It fails if the file cannot be read or the header
// row is absent or empty.
func (s *CSVSource) Open() (Rows, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}

	r := csv.NewReader(f)
	r.Comma = s.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("input %s: missing header row", s.Path)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	fields := make([]string, len(header))
	empty := true
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.TrimSpace(h)
		fields[i] = h
		if h != "" {
			empty = false
		}
	}
	if empty {
		_ = f.Close()
		return nil, fmt.Errorf("input %s: empty header row", s.Path)
	}

	return &csvRows{f: f, r: r, header: fields}, nil
}

type csvRows struct {
	f      *os.File
	r      *csv.Reader
	header []string
}

func (c *csvRows) Header() []string { return c.header }

// Next aligns each record to the header: short records are padded with
// empty strings, extra trailing fields are dropped.
func (c *csvRows) Next() ([]string, error) {
	rec, err := c.r.Read()
	if err != nil {
		return nil, err
	}

	row := make([]string, len(c.header))
	for i := range c.header {
		if i < len(rec) {
			row[i] = strings.TrimSpace(rec[i])
		}
	}
	return row, nil
}

func (c *csvRows) Close() error { return c.f.Close() }
