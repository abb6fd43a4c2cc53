// Package schema implements column type inference for untyped delimited
// text. Each column starts at the narrowest kind (integer) and is promoted
// monotonically through a lattice as values are observed; free text is the
// terminal absorbing state.
package schema

import (
	"strconv"
	"time"
)

// Kind is a column's inferred physical type. The declaration order is the
// lattice order, weakest to strongest.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindDate
	KindBoolean
	KindVarText
	KindLongVarText
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindBoolean:
		return "boolean"
	case KindVarText:
		return "vartext"
	case KindLongVarText:
		return "longvartext"
	default:
		return "unknown"
	}
}

// IsText reports whether k is one of the two text kinds.
func (k Kind) IsText() bool {
	return k == KindVarText || k == KindLongVarText
}

// LongTextThreshold is the maximum observed length (in characters) a text
// column may have and still be VarText; anything longer is LongVarText.
const LongTextThreshold = 255

// Canonical boolean literals. Matching is exact: any other spelling keeps a
// column out of the boolean kind entirely.
const (
	BoolTrueLiteral  = "Yes"
	BoolFalseLiteral = "No"
)

// IntWidth is the physical width assigned to an integer column after the
// full scan, from its observed [Min, Max].
type IntWidth int

const (
	WidthInt32 IntWidth = iota // default signed 32-bit
	WidthUint8                 // fits [0, 255]
	WidthInt16                 // fits [-32768, 32767]
)

// ColumnState is the running inference state for one column. It is mutated
// only by Observe and only upward in the lattice; the inferencer freezes it
// into the final schema once the scan completes.
type ColumnState struct {
	Kind Kind

	// Size is the maximum text length observed across all non-empty values.
	// It decides VarText vs LongVarText and the declared width of text
	// columns. Boolean columns carry a fixed size of 1.
	Size int

	// Min and Max bound the observed values of an integer column. They are
	// meaningful only while Kind == KindInteger.
	Min int64
	Max int64

	seenInt bool
}

// dateLayouts are the accepted date and timestamp spellings, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate reports whether s is one of the recognized date spellings and
// returns the parsed time.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBool maps a canonical boolean literal to its value. The second
// return is false for anything that is not exactly one of the two literals.
func ParseBool(s string) (bool, bool) {
	switch s {
	case BoolTrueLiteral:
		return true, true
	case BoolFalseLiteral:
		return false, true
	}
	return false, false
}

// Observe applies the promotion rule for a single non-empty value.
//
// Float, date and boolean are reachable only from the untouched integer
// default; a column that has left integer for one of them stays there no
// matter what arrives later. Text absorbs everything, and the running
// maximum length can still widen VarText into LongVarText.
func (c *ColumnState) Observe(value string) {
	if value == "" {
		return
	}
	if c.Kind != KindBoolean {
		if n := len(value); n > c.Size {
			c.Size = n
		}
	}

	if c.Kind.IsText() {
		if c.Kind == KindVarText && c.Size > LongTextThreshold {
			c.Kind = KindLongVarText
		}
		return
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		if c.Kind == KindInteger {
			if !c.seenInt || i < c.Min {
				c.Min = i
			}
			if !c.seenInt || i > c.Max {
				c.Max = i
			}
			c.seenInt = true
		}
		return
	}

	if c.Kind != KindInteger {
		// Already float, date, or boolean: absorbed without re-checking.
		return
	}

	if _, err := strconv.ParseFloat(value, 64); err == nil {
		c.Kind = KindFloat
		return
	}
	if _, ok := ParseDate(value); ok {
		c.Kind = KindDate
		return
	}
	if _, ok := ParseBool(value); ok {
		c.Kind = KindBoolean
		c.Size = 1
		return
	}

	if c.Size > LongTextThreshold {
		c.Kind = KindLongVarText
	} else {
		c.Kind = KindVarText
	}
}

// IntWidth returns the physical width for an integer column from its
// observed bounds. Columns that never saw a value keep the default width.
func (c ColumnState) IntWidth() IntWidth {
	if c.Kind != KindInteger || !c.seenInt {
		return WidthInt32
	}
	if c.Min >= 0 && c.Max <= 255 {
		return WidthUint8
	}
	if c.Min >= -32768 && c.Max <= 32767 {
		return WidthInt16
	}
	return WidthInt32
}
