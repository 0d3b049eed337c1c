package analysis

import (
	"strconv"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

// Kind discriminates the closed set of runtime cell values. Empty is the
// canonical missing sentinel; after cleaning no other null-like state
// exists.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindBool
	KindString
)

// Cell is one field's runtime value within a record.
type Cell struct {
	kind Kind
	num  float64
	b    bool
	str  string
}

// EmptyCell returns the missing sentinel.
func EmptyCell() Cell { return Cell{kind: KindEmpty} }

// NumberCell wraps a numeric value.
func NumberCell(v float64) Cell { return Cell{kind: KindNumber, num: v} }

// BoolCell wraps a boolean value.
func BoolCell(v bool) Cell { return Cell{kind: KindBool, b: v} }

// StringCell wraps a string value. An empty string is the sentinel, not a
// present value.
func StringCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	return Cell{kind: KindString, str: s}
}

// Kind returns the cell's discriminator.
func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell is the missing sentinel.
func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// Number returns the numeric value; meaningful only for KindNumber.
func (c Cell) Number() float64 { return c.num }

// Bool returns the boolean value; meaningful only for KindBool.
func (c Cell) Bool() bool { return c.b }

// Display returns the cell's string coercion: numbers in shortest
// round-trip form (1.0 renders as "1"), booleans as true/false, the
// sentinel as "". Unique-value counting for non-numeric columns and BadCell
// values both use this form.
func (c Cell) Display() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.b)
	case KindString:
		return c.str
	default:
		return ""
	}
}

// typeTag maps a present cell's kind to its column type tag.
func (c Cell) typeTag() domain.ColumnType {
	switch c.kind {
	case KindNumber:
		return domain.TypeNumber
	case KindBool:
		return domain.TypeBoolean
	default:
		return domain.TypeString
	}
}

// isBinaryNumber reports whether the cell is exactly the number 0 or 1.
func (c Cell) isBinaryNumber() bool {
	return c.kind == KindNumber && (c.num == 0 || c.num == 1)
}

// numericValue coerces the cell to a float for numeric statistics. Numbers
// pass through, booleans coerce to 0/1, strings qualify only when they
// carry a numeric literal under the tokenizer grammar.
func (c Cell) numericValue() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindBool:
		if c.b {
			return 1, true
		}
		return 0, true
	case KindString:
		return parseNumericLiteral(c.str)
	default:
		return 0, false
	}
}
