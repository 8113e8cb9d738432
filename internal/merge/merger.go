// Package merge stitches code candidates split across page boundaries back
// into single logical blocks.
package merge

import (
	"strings"

	"github.com/skillforge/extraction-engine/internal/domain"
	"github.com/skillforge/extraction-engine/internal/lang"
	"github.com/skillforge/extraction-engine/internal/observability"
	"github.com/skillforge/extraction-engine/internal/score"
)

// Merger fuses page-adjacent candidate pairs. Merging requires the same
// concrete detected language on both sides and a trailing structure on the
// first side that plausibly continues; two unknown-language candidates are
// never merged.
type Merger struct {
	detector  *lang.Detector
	validator *lang.Validator
	scorer    *score.Scorer
	logger    *observability.Logger
}

// NewMerger creates a merger that recomputes language, validity and score
// for fused spans.
func NewMerger(detector *lang.Detector, validator *lang.Validator, scorer *score.Scorer, logger *observability.Logger) *Merger {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Merger{
		detector:  detector,
		validator: validator,
		scorer:    scorer,
		logger:    logger,
	}
}

// Merge performs a sequential pass over pages in page order, fusing
// eligible candidate pairs across adjacent page boundaries. Pages must be
// sorted by page number. It returns the number of merges performed.
// A fused candidate lives on the page where the block starts.
func (m *Merger) Merge(pages []domain.Page) int {
	merged := 0

	for i := 0; i+1 < len(pages); i++ {
		cur := &pages[i]
		next := &pages[i+1]

		// Only exactly adjacent pages are ever fused.
		if next.Number != cur.Number+1 {
			continue
		}
		if cur.Failed || next.Failed {
			continue
		}
		if len(next.Candidates) == 0 {
			continue
		}

		// The bottom of cur is usually its own last candidate. When an
		// earlier fuse consumed it, the chain's fused candidate lives on a
		// prior page and already spans through cur.
		tailPage, tailIdx := tailIndex(pages, i)
		if tailPage < 0 {
			continue
		}
		tail := pages[tailPage].Candidates[tailIdx]
		head := next.Candidates[0]

		if !m.shouldMerge(tail, head) {
			continue
		}

		fused := m.fuse(tail, head)
		pages[tailPage].Candidates[tailIdx] = fused
		next.Candidates = next.Candidates[1:]
		merged++

		m.logger.Debug().
			Str("language", string(fused.Language)).
			Int("start_page", fused.Pages.Start).
			Int("end_page", fused.Pages.End).
			Msg("Merged split code block")
	}

	return merged
}

// tailIndex locates the candidate forming the bottom of page i: the page's
// own last candidate, or the fused candidate on an earlier page whose range
// already extends through page i. Returns (-1, -1) when there is none.
func tailIndex(pages []domain.Page, i int) (int, int) {
	if len(pages[i].Candidates) > 0 {
		return i, len(pages[i].Candidates) - 1
	}

	for j := i - 1; j >= 0; j-- {
		if pages[j].Failed {
			return -1, -1
		}
		if len(pages[j].Candidates) == 0 {
			continue
		}
		idx := len(pages[j].Candidates) - 1
		if pages[j].Candidates[idx].Pages.End == pages[i].Number {
			return j, idx
		}
		return -1, -1
	}

	return -1, -1
}

// shouldMerge applies the pairing rules: page-bottom to page-top, identical
// concrete language, and a plausible continuation.
func (m *Merger) shouldMerge(tail, head domain.CodeCandidate) bool {
	if !tail.EndsAtBottom || !head.StartsAtTop {
		return false
	}

	// Matching a concrete language is required; the absence of one (both
	// unknown) is not a match.
	if !tail.Language.Concrete() || tail.Language != head.Language {
		return false
	}

	return lang.EndsOpen(tail.Text)
}

// fuse combines two candidates and recomputes language, confidence,
// validity and score for the joined span rather than retaining the
// originals.
func (m *Merger) fuse(tail, head domain.CodeCandidate) domain.CodeCandidate {
	text := strings.TrimRight(tail.Text, "\n") + "\n" + strings.TrimLeft(head.Text, "\n")

	language, confidence := m.detector.Detect(text)
	syntaxOK := m.validator.Validate(text, language)

	fused := domain.CodeCandidate{
		Text:       text,
		Language:   language,
		Confidence: confidence,
		SyntaxOK:   syntaxOK,
		Pages: domain.PageRange{
			Start: tail.Pages.Start,
			End:   head.Pages.End,
		},
		StartsAtTop:  tail.StartsAtTop,
		EndsAtBottom: head.EndsAtBottom,
	}

	fused.Score = m.scorer.Score(score.Input{
		Confidence:     confidence,
		SyntaxOK:       syntaxOK,
		Length:         len(text),
		Lines:          fused.LineCount(),
		KeywordDensity: m.detector.KeywordDensity(text, language),
		HasComments:    hasComments(text),
	})

	return fused
}

func hasComments(text string) bool {
	for _, marker := range []string{"//", "# ", "/*", "--"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
