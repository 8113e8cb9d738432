// Package chapter segments a page sequence into labeled sections using
// heading heuristics.
package chapter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/skillforge/extraction-engine/internal/domain"
)

// defaultLeadingLines is how many leading non-blank lines of a page are
// examined for a heading.
const defaultLeadingLines = 10

// maxHeadingLength rejects long lines that cannot plausibly be headings.
const maxHeadingLength = 80

var (
	chapterRe    = regexp.MustCompile(`^(?i:chapter)\s+(\d+)[.:]?\s*(.*)$`)
	numberedRe   = regexp.MustCompile(`^(\d+)\.\s+(\S.*)$`)
	subsectionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.?\s+(\S.*)$`)
)

// PageText pairs a page number with its extracted text.
type PageText struct {
	Number int
	Text   string
}

// Detector finds chapter boundaries in ordered page texts.
type Detector struct {
	leadingLines int
}

// NewDetector creates a chapter detector.
func NewDetector() *Detector {
	return &Detector{leadingLines: defaultLeadingLines}
}

// Detect scans pages in order and returns chapters covering the full page
// range. Each chapter's EndPage is the exclusive start of the next chapter
// or the page after the document end. When no heading is found the whole
// document is one unnamed chapter.
func (d *Detector) Detect(pages []PageText) []domain.Chapter {
	if len(pages) == 0 {
		return nil
	}

	firstPage := pages[0].Number
	lastPage := pages[len(pages)-1].Number

	var chapters []domain.Chapter

	for _, page := range pages {
		title, ok := d.headingIn(page.Text)
		if !ok {
			continue
		}

		if len(chapters) > 0 {
			prev := &chapters[len(chapters)-1]
			if prev.StartPage == page.Number {
				// A second heading on the same page never splits it.
				continue
			}
			prev.EndPage = page.Number
		} else if page.Number > firstPage {
			// Pages before the first heading form an unnamed preamble.
			chapters = append(chapters, domain.Chapter{
				Title:     "",
				StartPage: firstPage,
				EndPage:   page.Number,
			})
		}

		chapters = append(chapters, domain.Chapter{
			Title:     title,
			StartPage: page.Number,
			EndPage:   lastPage + 1,
		})
	}

	if len(chapters) == 0 {
		return []domain.Chapter{{
			Title:     "",
			StartPage: firstPage,
			EndPage:   lastPage + 1,
		}}
	}

	return chapters
}

// headingIn looks for a heading in the page's leading lines and returns its
// title. Ordinary paragraph text never matches: every accepted pattern
// requires a numeric marker or an all-uppercase line anchored at line start.
func (d *Detector) headingIn(text string) (string, bool) {
	examined := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		examined++
		if examined > d.leadingLines {
			break
		}

		if len(line) > maxHeadingLength {
			continue
		}

		if m := chapterRe.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[2])
			if title == "" {
				title = "Chapter " + m[1]
			}
			return title, true
		}

		if m := subsectionRe.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[3]), true
		}

		if m := numberedRe.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[2]), true
		}

		if isUppercaseHeading(line) {
			return strings.TrimSpace(line), true
		}
	}

	return "", false
}

// isUppercaseHeading accepts short, fully uppercase lines such as
// "INTRODUCTION" or "ERROR HANDLING". A line with any lowercase letter, a
// terminal period, or too few letters is rejected.
func isUppercaseHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 || len(trimmed) > 60 {
		return false
	}
	if strings.HasSuffix(trimmed, ".") {
		return false
	}

	letters := 0
	for _, r := range trimmed {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}

	return letters >= 3
}

// Assign labels each page with the title of the chapter containing it.
func Assign(pages []domain.Page, chapters []domain.Chapter) {
	for i := range pages {
		for _, ch := range chapters {
			if pages[i].Number >= ch.StartPage && pages[i].Number < ch.EndPage {
				pages[i].Chapter = ch.Title
				break
			}
		}
	}
}
