// Package domain holds the data model shared by the extraction pipeline.
package domain

import (
	"time"
)

// Language identifies a detected programming language.
type Language string

const (
	LangUnknown    Language = "unknown"
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangSQL        Language = "sql"
	LangShell      Language = "shell"
)

// Concrete reports whether the language is a real detection rather than
// the unknown fallback.
func (l Language) Concrete() bool {
	return l != "" && l != LangUnknown
}

// PageRange is a contiguous, 1-indexed inclusive range of pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether the range includes the given page number.
func (r PageRange) Contains(page int) bool {
	return page >= r.Start && page <= r.End
}

// Valid reports whether the range is well formed (ascending, 1-indexed).
func (r PageRange) Valid() bool {
	return r.Start >= 1 && r.End >= r.Start
}

// CodeCandidate is a text span hypothesized to be source code.
type CodeCandidate struct {
	Text       string    `json:"text"`
	Language   Language  `json:"language"`
	Confidence float64   `json:"confidence"` // [0,1]
	SyntaxOK   bool      `json:"syntax_ok"`
	Score      float64   `json:"score"` // [0,10]
	Pages      PageRange `json:"pages"`

	// Position hints used by the merger. StartsAtTop is true when the span
	// begins at the first non-blank line of its page, EndsAtBottom when it
	// ends at the last.
	StartsAtTop  bool `json:"starts_at_top"`
	EndsAtBottom bool `json:"ends_at_bottom"`
}

// LineCount returns the number of lines in the candidate text.
func (c CodeCandidate) LineCount() int {
	if c.Text == "" {
		return 0
	}
	n := 1
	for _, r := range c.Text {
		if r == '\n' {
			n++
		}
	}
	return n
}

// Table is a grid of cell values extracted from one page.
type Table struct {
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Cells  []string   `json:"cells"` // row-major, len == Rows*Cols (padded)
	Region TableRegion `json:"region"`
	Page   int        `json:"page"`
}

// TableRegion marks the line span the table occupied in the page text.
type TableRegion struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Cell returns the value at (row, col), or "" when out of bounds.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= t.Rows || col < 0 || col >= t.Cols {
		return ""
	}
	return t.Cells[row*t.Cols+col]
}

// Chapter is a contiguous page range sharing a detected heading.
type Chapter struct {
	Title     string `json:"title"`
	StartPage int    `json:"start_page"` // inclusive
	EndPage   int    `json:"end_page"`   // exclusive
}

// Page holds everything extracted from a single document page.
type Page struct {
	Number     int             `json:"number"` // 1-indexed
	Text       string          `json:"text"`
	Candidates []CodeCandidate `json:"candidates"`
	Tables     []Table         `json:"tables"`
	ImageTexts []string        `json:"image_texts"` // recognition-from-image output
	Chapter    string          `json:"chapter"`     // assigned after chapter detection

	// Failure bookkeeping. A failed page keeps its slot in the document with
	// empty candidate and table lists.
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`

	// TableError records a table-extraction failure scoped to this page.
	TableError string `json:"table_error,omitempty"`
}

// Document is the ordered result of one pipeline run. It is read-only to
// downstream consumers once the run completes.
type Document struct {
	SourceID  string    `json:"source_id"`
	PageCount int       `json:"page_count"`
	Encrypted bool      `json:"encrypted"`
	Pages     []Page    `json:"pages"`
	Chapters  []Chapter `json:"chapters"`
	Stats     ProcessingStats `json:"stats"`
}

// FailedPages returns the numbers of pages that could not be extracted.
func (d *Document) FailedPages() []int {
	var failed []int
	for _, p := range d.Pages {
		if p.Failed {
			failed = append(failed, p.Number)
		}
	}
	return failed
}

// Candidates returns all code candidates across pages, in page order.
func (d *Document) Candidates() []CodeCandidate {
	var out []CodeCandidate
	for _, p := range d.Pages {
		out = append(out, p.Candidates...)
	}
	return out
}

// ProcessingStats summarizes a pipeline run.
type ProcessingStats struct {
	RunID              string        `json:"run_id"`
	PagesProcessed     int           `json:"pages_processed"`
	SuccessfulPages    int           `json:"successful_pages"`
	FailedPages        int           `json:"failed_pages"`
	CandidatesKept     int           `json:"candidates_kept"`
	CandidatesDropped  int           `json:"candidates_dropped"` // below quality threshold
	MergedBlocks       int           `json:"merged_blocks"`
	RecognizedPages    int           `json:"recognized_pages"` // pages recovered via image recognition
	CacheHit           bool          `json:"cache_hit"`
	Duration           time.Duration `json:"duration"`
}
