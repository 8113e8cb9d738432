// Package lang provides programming-language detection and syntax
// plausibility checking for extracted text spans.
package lang

import (
	"strings"
	"unicode"

	"github.com/skillforge/extraction-engine/internal/domain"
)

// DefaultMinConfidence is the score a language must clear to be reported as
// a concrete detection rather than unknown.
const DefaultMinConfidence = 0.30

// Detector classifies text spans against the language signature table.
type Detector struct {
	signatures    []signature
	minConfidence float64
}

// NewDetector creates a detector with the built-in signature table.
func NewDetector() *Detector {
	return &Detector{
		signatures:    defaultSignatures(),
		minConfidence: DefaultMinConfidence,
	}
}

// NewDetectorWithThreshold creates a detector with a custom minimum
// confidence threshold, clamped to [0,1].
func NewDetectorWithThreshold(minConfidence float64) *Detector {
	if minConfidence < 0 {
		minConfidence = 0
	}
	if minConfidence > 1 {
		minConfidence = 1
	}
	return &Detector{
		signatures:    defaultSignatures(),
		minConfidence: minConfidence,
	}
}

// Detect scores the span against every language signature and returns the
// best language with its confidence. Confidence is always in [0,1]. When no
// language clears the threshold the result is LangUnknown with a low
// confidence derived from the best rejected score.
func (d *Detector) Detect(span string) (domain.Language, float64) {
	if strings.TrimSpace(span) == "" {
		return domain.LangUnknown, 0
	}

	best := domain.LangUnknown
	bestConf := 0.0

	for _, sig := range d.signatures {
		conf := d.score(span, sig)
		if conf > bestConf {
			bestConf = conf
			best = sig.lang
		}
	}

	if bestConf < d.minConfidence {
		// Report unknown with a deliberately low confidence so callers can
		// still rank near-miss spans.
		return domain.LangUnknown, bestConf / 2
	}

	return best, bestConf
}

// KeywordDensity returns the fraction of span tokens that are keywords of
// the given language. Used as a surface feature by the quality scorer and
// the prose check.
func (d *Detector) KeywordDensity(span string, language domain.Language) float64 {
	sig, ok := d.signature(language)
	if !ok {
		return 0
	}

	tokens := tokenize(span)
	if len(tokens) == 0 {
		return 0
	}

	hits := 0
	for _, tok := range tokens {
		if sig.caseInsensitive {
			tok = strings.ToLower(tok)
		}
		if _, found := sig.keywords[tok]; found {
			hits++
		}
	}

	return float64(hits) / float64(len(tokens))
}

// IndentSensitive reports whether the language uses indentation for block
// structure.
func (d *Detector) IndentSensitive(language domain.Language) bool {
	sig, ok := d.signature(language)
	return ok && sig.indentSensitive
}

// score computes a normalized [0,1] confidence for one signature.
func (d *Detector) score(span string, sig signature) float64 {
	tokens := tokenize(span)
	if len(tokens) == 0 {
		return 0
	}

	keywordHits := 0
	distinct := make(map[string]struct{})
	for _, tok := range tokens {
		if sig.caseInsensitive {
			tok = strings.ToLower(tok)
		}
		if _, found := sig.keywords[tok]; found {
			keywordHits++
			distinct[tok] = struct{}{}
		}
	}

	patternHits := 0
	lines := strings.Split(span, "\n")
	for _, pat := range sig.patterns {
		for _, line := range lines {
			if pat.MatchString(line) {
				patternHits++
			}
		}
	}

	braces := 0
	if sig.usesBraces {
		braces = strings.Count(span, "{") + strings.Count(span, "}")
	}

	// One keyword-shaped English word is not evidence of code. A nonzero
	// score requires structural support or a repeated keyword vocabulary.
	if patternHits == 0 && braces == 0 && len(distinct) < 2 {
		return 0
	}

	// Keyword and pattern evidence, normalized by span length so long prose
	// with a stray keyword scores low while a dense snippet scores high.
	density := (2.0*float64(keywordHits) + 3.0*float64(patternHits)) / float64(len(tokens))

	if braces > 0 {
		density += 0.5 * float64(braces) / float64(len(lines)+1)
	}

	// Map unbounded density onto [0,1). Dense spans approach 1 without ever
	// reaching it; zero evidence stays at 0.
	return density / (density + 0.4)
}

func (d *Detector) signature(language domain.Language) (signature, bool) {
	for _, sig := range d.signatures {
		if sig.lang == language {
			return sig, true
		}
	}
	return signature{}, false
}

// tokenize splits a span into identifier-like tokens.
func tokenize(span string) []string {
	return strings.FieldsFunc(span, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
