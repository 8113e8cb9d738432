package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skillforge/extraction-engine/internal/domain"
)

// maxTableCols rejects implausibly wide grids, which are almost always
// mis-detected ASCII art or corrupted extraction output.
const maxTableCols = 32

// minTableRows is the minimum number of data rows to accept a table.
const minTableRows = 2

var gapSplitRe = regexp.MustCompile(`\s{2,}`)

// TableExtractor finds embedded tables in page text. It recognizes
// pipe-delimited rows and whitespace-aligned column grids.
type TableExtractor struct{}

// NewTableExtractor creates a table extractor.
func NewTableExtractor() *TableExtractor {
	return &TableExtractor{}
}

// Extract returns all tables found in the page text. A failure is scoped to
// the whole page: callers record it and keep the page's table list empty.
func (t *TableExtractor) Extract(text string, page int) ([]domain.Table, error) {
	lines := strings.Split(text, "\n")

	var tables []domain.Table
	i := 0
	for i < len(lines) {
		rows, consumed, start := t.rowRunAt(lines, i)
		if consumed == 0 {
			break
		}
		if len(rows) < minTableRows {
			i = start + consumed
			continue
		}

		table, err := buildTable(rows, page, start, start+consumed-1)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
		i = start + consumed
	}

	return tables, nil
}

// rowRunAt collects a run of consecutive table-like rows starting at or
// after index i. Returns the parsed rows, the number of lines consumed and
// the line index the run started at.
func (t *TableExtractor) rowRunAt(lines []string, i int) ([][]string, int, int) {
	// Skip to the next table-like line.
	for i < len(lines) && parseRow(lines[i]) == nil && !isSeparatorRow(lines[i]) {
		i++
	}
	if i >= len(lines) {
		return nil, 0, i
	}

	start := i
	var rows [][]string
	consumed := 0
	for i < len(lines) {
		line := lines[i]
		if isSeparatorRow(line) {
			i++
			consumed++
			continue
		}
		cells := parseRow(line)
		if cells == nil {
			break
		}
		rows = append(rows, cells)
		i++
		consumed++
	}

	return rows, consumed, start
}

// parseRow splits a line into cells, or returns nil when the line is not
// table-like. Pipe-delimited rows take precedence over whitespace grids.
func parseRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	if strings.Count(trimmed, "|") >= 2 {
		parts := strings.Split(trimmed, "|")
		// Drop the empty edges produced by leading/trailing pipes.
		if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
			parts = parts[1:]
		}
		if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
			parts = parts[:len(parts)-1]
		}
		if len(parts) < 2 {
			return nil
		}
		cells := make([]string, len(parts))
		for i, p := range parts {
			cells[i] = strings.TrimSpace(p)
		}
		return cells
	}

	// Whitespace grid: at least three columns separated by 2+ spaces keeps
	// ordinary sentences with double spaces out.
	cells := gapSplitRe.Split(trimmed, -1)
	if len(cells) < 3 {
		return nil
	}
	return cells
}

// isSeparatorRow matches markdown-style separator lines (|---|---|).
func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.Contains(trimmed, "-") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '|', '-', ':', '+', ' ':
		default:
			return false
		}
	}
	return true
}

// buildTable assembles a row-major table, padding short rows so that
// rows x cols always equals the number of recorded cells.
func buildTable(rows [][]string, page, startLine, endLine int) (domain.Table, error) {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	if cols > maxTableCols {
		return domain.Table{}, domain.TableExtractionError(
			fmt.Sprintf("implausible grid with %d columns on page %d", cols, page), nil)
	}

	cells := make([]string, 0, len(rows)*cols)
	for _, row := range rows {
		cells = append(cells, row...)
		for pad := len(row); pad < cols; pad++ {
			cells = append(cells, "")
		}
	}

	return domain.Table{
		Rows:  len(rows),
		Cols:  cols,
		Cells: cells,
		Region: domain.TableRegion{
			StartLine: startLine,
			EndLine:   endLine,
		},
		Page: page,
	}, nil
}
