package analysis

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
)

// numericPattern is the literal grammar recognized during tokenization:
// optional minus, integer or decimal body, optional exponent. ParseFloat
// alone would also admit Inf, NaN and hex floats, which must stay strings.
var numericPattern = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseNumericLiteral reports whether s holds a numeric literal under the
// tokenizer grammar, returning its value.
func parseNumericLiteral(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// coerceToken converts one raw field into a Cell: numeric literals become
// numbers, the literals true/TRUE/false/FALSE become booleans, blank fields
// are missing, anything else stays a string with its original spacing.
func coerceToken(tok string) Cell {
	trimmed := strings.TrimSpace(tok)
	if trimmed == "" {
		return EmptyCell()
	}
	if f, ok := parseNumericLiteral(trimmed); ok {
		return NumberCell(f)
	}
	switch trimmed {
	case "true", "TRUE":
		return BoolCell(true)
	case "false", "FALSE":
		return BoolCell(false)
	}
	return StringCell(tok)
}

// Parse tokenizes raw comma-delimited text with a header row into a
// Dataset. The first record defines the column names and the field count
// every later record must match. Malformed text (unterminated quote, ragged
// record) aborts the run with a parsing error; there is no partial
// recovery. Empty or whitespace-only text is a no-input failure.
func Parse(text string) (*Dataset, error) {
	return ParseDelimited(text, ',')
}

// ParseDelimited is Parse with a caller-chosen field delimiter, for
// tab-separated files. Everything else behaves exactly as Parse.
func ParseDelimited(text string, comma rune) (*Dataset, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewNoInputError()
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = comma
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to tokenize delimited text", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewNoInputError()
	}

	header := records[0]
	ds := &Dataset{
		Columns: header,
		Rows:    make([][]Cell, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		row := make([]Cell, len(header))
		for i, tok := range record {
			row[i] = coerceToken(tok)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
