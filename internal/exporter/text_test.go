package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Column")
	assert.Contains(t, out, "Mismatch")
	assert.Contains(t, out, "score")
	assert.Contains(t, out, "4.50e+00")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "Rows: 5 total, 3 valid, 2 with bad cells")
	assert.Contains(t, out, "Fingerprint: 9c12f4a7")

	// Bad cells are listed with their display value; missing cells get a
	// readable placeholder.
	assert.Contains(t, out, "score[2] = abc")
	assert.Contains(t, out, "score[4] = (missing)")
}

func TestRenderText_ColumnAlignment(t *testing.T) {
	report := &domain.Report{
		Columns: []domain.ColumnStat{
			{Column: "a_very_long_column_name", InferredType: domain.TypeString, UniqueCount: 1},
			{Column: "b", InferredType: domain.TypeString, UniqueCount: 1},
		},
		TotalRows: 1,
		ValidRows: 1,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, report))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)

	// Every table row pads the name field to the widest column name, so the
	// first separator sits at the same offset on each line.
	offset := strings.Index(lines[0], "|")
	require.Positive(t, offset)
	for _, line := range lines[1:4] {
		assert.Equal(t, offset, strings.Index(line, "|"), "line %q", line)
	}
}

func TestRenderText_NoBadCells(t *testing.T) {
	report := &domain.Report{
		Columns: []domain.ColumnStat{
			{Column: "id", InferredType: domain.TypeNumber,
				Numeric: &domain.NumericSummary{Mean: 2, Median: 2, Min: 1, Max: 3}, UniqueCount: 3},
		},
		TotalRows: 3,
		ValidRows: 3,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "Rows: 3 total, 3 valid, 0 with bad cells")
	assert.NotContains(t, out, "Bad cells:")
	assert.NotContains(t, out, "Fingerprint:")
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleReport())

	assert.Contains(t, out, "| "+strings.Join(columnStatHeaders, " | ")+" |")
	assert.Contains(t, out, "| score | number | 4.50e+00 | 4.5 | 2 | 7 | 2 | 1 | 1 |")
	assert.Contains(t, out, "| label | string | N/A | N/A | N/A | N/A | 3 | 0 | 0 |")
	assert.Contains(t, out, "**Rows:** 5 total, 3 valid, 2 with bad cells")
	assert.Contains(t, out, "| score | 2 | abc |")

	// The header separator row makes it render as a table.
	assert.Contains(t, out, "| --- |")
}

func TestMarkdown_NoBadCells(t *testing.T) {
	report := &domain.Report{
		Columns:   []domain.ColumnStat{{Column: "id", InferredType: domain.TypeString, UniqueCount: 2}},
		TotalRows: 2,
		ValidRows: 2,
	}

	out := Markdown(report)
	assert.NotContains(t, out, "row_index")
	assert.Contains(t, out, "**Rows:** 2 total, 2 valid, 0 with bad cells")
}
