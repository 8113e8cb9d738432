package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/extraction-engine/internal/domain"
)

func TestTableExtractor_Extract_PipeTable(t *testing.T) {
	te := NewTableExtractor()

	text := `Results of the benchmark run:

| Name   | Ops    | Allocs |
|--------|--------|--------|
| append | 120000 | 1      |
| copy   | 450000 | 0      |

Discussion follows.`

	tables, err := te.Extract(text, 7)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, 3, table.Rows)
	assert.Equal(t, 3, table.Cols)
	assert.Equal(t, 7, table.Page)
	assert.Len(t, table.Cells, table.Rows*table.Cols)
	assert.Equal(t, "Name", table.Cell(0, 0))
	assert.Equal(t, "0", table.Cell(2, 2))
}

func TestTableExtractor_Extract_WhitespaceGrid(t *testing.T) {
	te := NewTableExtractor()

	text := `City        Population   Area
Oslo        700000       454
Bergen      290000       465`

	tables, err := te.Extract(text, 1)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, 3, tables[0].Rows)
	assert.Equal(t, 3, tables[0].Cols)
	assert.Equal(t, "Bergen", tables[0].Cell(2, 0))
}

func TestTableExtractor_Extract_ShortRowsPadded(t *testing.T) {
	te := NewTableExtractor()

	text := `| a | b | c |
| d | e |`

	tables, err := te.Extract(text, 1)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, 2, table.Rows)
	assert.Equal(t, 3, table.Cols)
	assert.Len(t, table.Cells, 6)
	assert.Equal(t, "", table.Cell(1, 2))
}

func TestTableExtractor_Extract_SingleRowIgnored(t *testing.T) {
	te := NewTableExtractor()

	tables, err := te.Extract("| just | one | row |", 1)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestTableExtractor_Extract_ProseIgnored(t *testing.T) {
	te := NewTableExtractor()

	text := "This paragraph has no tables.\nNeither does this one.\nOr this."

	tables, err := te.Extract(text, 1)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestTableExtractor_Extract_DoubleSpacedSentenceIgnored(t *testing.T) {
	te := NewTableExtractor()

	// Two cells from a double space is not enough for a whitespace grid.
	text := "One sentence.  Another sentence.\nOne more.  And another."

	tables, err := te.Extract(text, 1)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestTableExtractor_Extract_ImplausiblyWideGridFails(t *testing.T) {
	te := NewTableExtractor()

	row := "|" + strings.Repeat(" x |", 40)
	text := row + "\n" + row

	tables, err := te.Extract(text, 3)
	require.Error(t, err)
	assert.Nil(t, tables)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrorTypeTableExtraction, derr.Type)
}

func TestTableExtractor_Extract_MultipleTables(t *testing.T) {
	te := NewTableExtractor()

	text := `| a | b |
| c | d |

prose separating them

| e | f |
| g | h |`

	tables, err := te.Extract(text, 2)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}
