package lang

import (
	"strings"

	"github.com/skillforge/extraction-engine/internal/domain"
)

// proseKeywordDensityFloor is the keyword density below which a span with no
// bracket or indentation structure is treated as natural-language prose.
// English sentences with a stray keyword-shaped word ("free", "pass") sit
// well under it; real bracket-free code ("SELECT id FROM users") sits above.
const proseKeywordDensityFloor = 0.25

// Validator plausibility-checks a span against the structural rules of its
// detected language. It checks the detector's output rather than trusting
// it: prose always fails, whatever the detector guessed.
type Validator struct {
	detector *Detector
}

// NewValidator creates a validator sharing the given detector's signature
// table.
func NewValidator(detector *Detector) *Validator {
	return &Validator{detector: detector}
}

// Validate reports whether the span is structurally plausible as code in
// the given language.
func (v *Validator) Validate(span string, language domain.Language) bool {
	if strings.TrimSpace(span) == "" {
		return false
	}

	if v.looksLikeProse(span, language) {
		return false
	}

	if !bracketsBalanced(span) {
		return false
	}

	if v.detector.IndentSensitive(language) && !indentConsistent(span) {
		return false
	}

	return true
}

// looksLikeProse detects natural-language text: no brackets, no indentation
// structure and low keyword density for the nominated language.
func (v *Validator) looksLikeProse(span string, language domain.Language) bool {
	if strings.ContainsAny(span, "{}()[];=<>") {
		return false
	}

	if hasIndentStructure(span) {
		return false
	}

	return v.detector.KeywordDensity(span, language) < proseKeywordDensityFloor
}

// bracketsBalanced verifies balanced (), [] and {} nesting, ignoring
// brackets inside string literals and line comments.
func bracketsBalanced(span string) bool {
	var stack []rune
	for _, r := range newStructuralScanner(span).runes() {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 {
				return false
			}
			open := stack[len(stack)-1]
			if !matches(open, r) {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

// OpenNesting returns the number of brackets left unclosed at the end of
// the span. A negative count (more closers than openers) returns 0.
func OpenNesting(span string) int {
	depth := 0
	for _, r := range newStructuralScanner(span).runes() {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}

// EndsOpen reports whether the span's trailing structure plausibly
// continues: unclosed brackets, or a last line ending in a continuation
// token.
func EndsOpen(span string) bool {
	if OpenNesting(span) > 0 {
		return true
	}

	lines := strings.Split(strings.TrimRight(span, "\n"), "\n")
	if len(lines) == 0 {
		return false
	}
	last := strings.TrimRight(lines[len(lines)-1], " \t")
	if last == "" {
		return false
	}

	switch last[len(last)-1] {
	case ',', '\\', ':', '+', '-', '*', '/', '&', '|', '=', '.':
		return true
	}
	return false
}

func matches(open, close rune) bool {
	switch open {
	case '(':
		return close == ')'
	case '[':
		return close == ']'
	case '{':
		return close == '}'
	}
	return false
}

// indentConsistent verifies that indentation changes are multiples of a
// detected indent unit and that no line dedents below the opening level.
func indentConsistent(span string) bool {
	var indents []int
	for _, line := range strings.Split(span, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indents = append(indents, leadingWidth(line))
	}
	if len(indents) == 0 {
		return true
	}

	base := indents[0]
	unit := 0
	for i := 1; i < len(indents); i++ {
		delta := indents[i] - indents[i-1]
		if delta > 0 && (unit == 0 || delta < unit) {
			unit = delta
		}
	}
	if unit == 0 {
		// No indentation increase anywhere: flat block, nothing to check.
		return true
	}

	seen := map[int]bool{base: true}
	for _, width := range indents {
		if width < base {
			return false
		}
		if (width-base)%unit != 0 {
			return false
		}
		if !seen[width] {
			// An indent increase must be exactly one unit above some
			// previously seen level; a dedent must land on a seen level.
			if !seen[width-unit] {
				return false
			}
			seen[width] = true
		}
	}
	return true
}

// hasIndentStructure reports whether the span has at least one indented
// line relative to its first line.
func hasIndentStructure(span string) bool {
	lines := strings.Split(span, "\n")
	first := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		width := leadingWidth(line)
		if first == -1 {
			first = width
			continue
		}
		if width > first {
			return true
		}
	}
	return false
}

// leadingWidth measures leading whitespace with tabs counted as 4 columns.
func leadingWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// structuralScanner strips string literals and line comments so bracket
// checks only see structural characters.
type structuralScanner struct {
	src string
}

func newStructuralScanner(src string) *structuralScanner {
	return &structuralScanner{src: src}
}

func (s *structuralScanner) runes() []rune {
	var out []rune
	var inString rune // active quote, 0 when outside
	inComment := false

	runes := []rune(s.src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inComment {
			if r == '\n' {
				inComment = false
				out = append(out, r)
			}
			continue
		}

		if inString != 0 {
			if r == '\\' {
				i++ // skip escaped char
				continue
			}
			if r == inString {
				inString = 0
			}
			continue
		}

		switch r {
		case '"', '\'', '`':
			inString = r
		case '#':
			inComment = true
		case '/':
			if i+1 < len(runes) && runes[i+1] == '/' {
				inComment = true
				i++
				continue
			}
			out = append(out, r)
		case '-':
			if i+1 < len(runes) && runes[i+1] == '-' {
				inComment = true
				i++
				continue
			}
			out = append(out, r)
		default:
			out = append(out, r)
		}
	}

	return out
}
