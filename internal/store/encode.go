package store

import (
	"fmt"
	"strconv"
	"strings"

	"csvload/internal/schema"
)

// NullLiteral is the SQL null marker emitted for empty values of any kind.
const NullLiteral = "NULL"

// QuoteString renders a single-quoted SQL string literal with embedded
// quotes doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Encode handles the literal encodings shared by every dialect: nulls,
// bare numerics, quoted text, dates (reformatted to dateLayout), and
// booleans (mapped to trueLit/falseLit). Numeric values are re-parsed
// before being emitted bare so that nothing unvalidated is ever spliced
// into a statement.
func Encode(kind schema.Kind, raw, dateLayout, trueLit, falseLit string) (string, error) {
	if raw == "" {
		return NullLiteral, nil
	}

	switch kind {
	case schema.KindInteger:
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return "", fmt.Errorf("value %q is not an integer", raw)
		}
		return raw, nil

	case schema.KindFloat:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return "", fmt.Errorf("value %q is not a number", raw)
		}
		return raw, nil

	case schema.KindDate:
		t, ok := schema.ParseDate(raw)
		if !ok {
			return "", fmt.Errorf("value %q is not a recognized date", raw)
		}
		return QuoteString(t.Format(dateLayout)), nil

	case schema.KindBoolean:
		v, ok := schema.ParseBool(raw)
		if !ok {
			return "", fmt.Errorf("value %q is not a boolean literal (%s/%s)",
				raw, schema.BoolTrueLiteral, schema.BoolFalseLiteral)
		}
		if v {
			return trueLit, nil
		}
		return falseLit, nil

	case schema.KindVarText, schema.KindLongVarText:
		return QuoteString(raw), nil

	default:
		return "", fmt.Errorf("unhandled column kind %v", kind)
	}
}

// BuildInsert renders a multi-row insert statement. Each row in literals
// must already be encoded for the target dialect and aligned to columns.
func BuildInsert(d Dialect, table string, columns []string, literals [][]string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")
	for i, row := range literals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		b.WriteString(strings.Join(row, ", "))
		b.WriteString(")")
	}
	return b.String()
}
