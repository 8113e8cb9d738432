// Package extract performs per-page content extraction: raw text, code
// candidates, embedded tables and optional recognition-from-image recovery.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/skillforge/extraction-engine/internal/domain"
	"github.com/skillforge/extraction-engine/internal/lang"
	"github.com/skillforge/extraction-engine/internal/observability"
	"github.com/skillforge/extraction-engine/internal/score"
)

// Config holds page extraction settings.
type Config struct {
	// EnableRecognitionFallback invokes the recognizer when directly
	// extracted text is below MinTextLength.
	EnableRecognitionFallback bool
	ExtractTables             bool
	// MinTextLength is the minimal-text threshold in alphanumeric runes.
	MinTextLength int
}

// PageExtractor extracts the contents of a single page. It is stateless per
// page and safe for concurrent use by pipeline workers.
type PageExtractor struct {
	detector   *lang.Detector
	validator  *lang.Validator
	scorer     *score.Scorer
	tables     *TableExtractor
	recognizer domain.Recognizer // optional, may be nil
	logger     *observability.Logger
	cfg        Config
}

// NewPageExtractor creates a page extractor. recognizer may be nil; the
// recognition fallback then degrades to a warning.
func NewPageExtractor(
	detector *lang.Detector,
	validator *lang.Validator,
	scorer *score.Scorer,
	recognizer domain.Recognizer,
	logger *observability.Logger,
	cfg Config,
) *PageExtractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &PageExtractor{
		detector:   detector,
		validator:  validator,
		scorer:     scorer,
		tables:     NewTableExtractor(),
		recognizer: recognizer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Extract processes one page: raw text, recognition fallback, table
// extraction and code candidate scoring. A returned error means the whole
// page failed; table extraction failures are captured inside the page
// instead.
func (e *PageExtractor) Extract(ctx context.Context, src domain.Source, pageNum int) (domain.Page, error) {
	page := domain.Page{Number: pageNum}

	text, err := src.PageText(ctx, pageNum)
	if err != nil {
		return page, domain.PageExtractionError(
			fmt.Sprintf("extract text of page %d", pageNum), err)
	}
	page.Text = text

	if alnumCount(text) < e.cfg.MinTextLength && e.cfg.EnableRecognitionFallback {
		recognized := e.recognize(ctx, src, pageNum)
		if recognized != "" {
			page.ImageTexts = append(page.ImageTexts, recognized)
			if strings.TrimSpace(page.Text) == "" {
				page.Text = recognized
			}
		}
	}

	if e.cfg.ExtractTables {
		tables, err := e.tables.Extract(page.Text, pageNum)
		if err != nil {
			// Scoped to this page: empty table list, failure recorded.
			page.TableError = err.Error()
			e.logger.Warn().
				Int("page", pageNum).
				Err(err).
				Msg("Table extraction failed")
		} else {
			page.Tables = tables
		}
	}

	page.Candidates = e.candidates(page.Text, pageNum)

	return page, nil
}

// recognize runs the optional recognition-from-image capability. Absence or
// failure is non-fatal: a warning is logged and extraction proceeds with
// whatever text was available.
func (e *PageExtractor) recognize(ctx context.Context, src domain.Source, pageNum int) string {
	if e.recognizer == nil {
		e.logger.Warn().
			Int("page", pageNum).
			Str("error_type", string(domain.ErrorTypeRecognition)).
			Msg("Sparse text but no recognizer configured, proceeding with extracted text")
		return ""
	}

	image, err := src.PageImage(ctx, pageNum)
	if err != nil {
		e.logger.Warn().
			Int("page", pageNum).
			Err(err).
			Msg("Page image rendering failed, skipping recognition")
		return ""
	}

	text, err := e.recognizer.Recognize(ctx, image)
	if err != nil {
		e.logger.Warn().
			Int("page", pageNum).
			Err(err).
			Msg("Recognition failed, proceeding with extracted text")
		return ""
	}

	e.logger.Debug().
		Int("page", pageNum).
		Int("chars", len(text)).
		Msg("Recovered page text via image recognition")

	return text
}

// candidates segments the page text into blocks separated by blank lines
// and turns code-like blocks into scored candidates. Every candidate is
// kept here; quality-threshold filtering happens after merging.
func (e *PageExtractor) candidates(text string, pageNum int) []domain.CodeCandidate {
	blocks := splitBlocks(text)

	var out []domain.CodeCandidate
	for _, block := range blocks {
		language, confidence := e.detector.Detect(block.text)
		if !language.Concrete() && !looksLikeCode(block.text) {
			continue
		}

		syntaxOK := e.validator.Validate(block.text, language)

		cand := domain.CodeCandidate{
			Text:         block.text,
			Language:     language,
			Confidence:   confidence,
			SyntaxOK:     syntaxOK,
			Pages:        domain.PageRange{Start: pageNum, End: pageNum},
			StartsAtTop:  block.first,
			EndsAtBottom: block.last,
		}

		cand.Score = e.scorer.Score(score.Input{
			Confidence:     confidence,
			SyntaxOK:       syntaxOK,
			Length:         len(block.text),
			Lines:          cand.LineCount(),
			KeywordDensity: e.detector.KeywordDensity(block.text, language),
			HasComments:    hasCommentMarker(block.text),
		})

		out = append(out, cand)
	}

	return out
}

// block is a blank-line separated run of page text.
type block struct {
	text  string
	first bool // block is the first non-blank content of the page
	last  bool // block ends at the last non-blank line of the page
}

func splitBlocks(text string) []block {
	lines := strings.Split(text, "\n")

	var blocks []block
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, block{text: strings.Join(current, "\n")})
		current = nil
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(blocks) > 0 {
		blocks[0].first = true
		blocks[len(blocks)-1].last = true
	}

	return blocks
}

// looksLikeCode keeps structurally code-like blocks even when the detector
// reports unknown, so pagination fragments are not lost before merging.
func looksLikeCode(text string) bool {
	symbols := 0
	for _, r := range text {
		switch r {
		case '{', '}', '(', ')', '[', ']', ';', '=', '<', '>':
			symbols++
		}
	}
	lines := strings.Count(text, "\n") + 1
	return symbols >= 2*lines || lang.OpenNesting(text) > 0
}

func hasCommentMarker(text string) bool {
	for _, marker := range []string{"//", "# ", "/*", "--"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func alnumCount(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
