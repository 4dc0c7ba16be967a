// Package normalize strips boilerplate from raw extracted text before
// segmentation. Cleaning is format-independent: the same rules apply to
// web-scraped pages and PDF extractions.
package normalize

import (
	"regexp"
	"strings"
)

// DefaultMinLineLength is the smallest stripped line length considered
// significant content.
const DefaultMinLineLength = 25

// boilerplate lines dropped regardless of length: figure/table/box
// captions, citation braces, navigation labels, page artifacts and
// running headers common in assessment-report PDFs.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*Figure\s+\d`),
	regexp.MustCompile(`(?i)^\s*Fig\.\s+\d`),
	regexp.MustCompile(`(?i)^\s*Table\s+\d`),
	regexp.MustCompile(`(?i)^\s*Box\s+\d`),
	regexp.MustCompile(`(?i)^\s*Panel\s+[A-Z]`),
	regexp.MustCompile(`(?i)^\s*FAQ\s+\d`),
	regexp.MustCompile(`(?i)^\s*Frequently Asked Questions`),
	regexp.MustCompile(`^\s*\{[^}]*\}\s*$`),
	regexp.MustCompile(`(?i)^\s*SPM[-.]\d`),
	regexp.MustCompile(`(?i)^\s*WGI+\s*-\s*\d`),
	regexp.MustCompile(`(?i)^\s*AR6\s`),
	regexp.MustCompile(`(?i)^\s*IPCC\s`),
	regexp.MustCompile(`(?i)^\s*See\s+(Figure|Table|Box|Section)`),
	regexp.MustCompile(`(?i)^\s*this (chapter|report) should be cited as`),
	regexp.MustCompile(`^\s*\d+\s*$`),
	regexp.MustCompile(`(?i)^\s*Page\s+\d+`),
	regexp.MustCompile(`(?i)^\s*Chapter\s+\d+\s*$`),
	regexp.MustCompile(`(?i)^\s*Summary\s+for\s+Policymakers\s*$`),
	regexp.MustCompile(`^\s*===\s*Page\s+\d+\s*===`),
	regexp.MustCompile(`(?i)^\s*(skip to( main)? content|jump to navigation|main menu|search|menu|home|back to top|share|print|download)\s*$`),
	regexp.MustCompile(`^\s*\([a-z]\)\s*$`),
	regexp.MustCompile(`^\s*[A-Z]\)\s*$`),
	regexp.MustCompile(`^\s*[a-z]\.\s*$`),
	regexp.MustCompile(`^\s*\d+\.\s*$`),
	regexp.MustCompile(`^\s*\([^)]{1,3}\)\s*$`),
	regexp.MustCompile(`^\s*(\.{3,}|…)\s*$`),
}

// authorListPattern matches author-roster lines ("A. Name, B. Name,
// C. Name, ..."): many comma-separated short capitalized tokens with
// initials and almost no sentence structure.
var authorListPattern = regexp.MustCompile(`^\s*(?:[A-Z]\.\s*)+[A-Z][a-zA-Z-]+(?:\s*\([A-Za-z /]+\))?(?:\s*,\s*(?:[A-Z]\.\s*)+[A-Z][a-zA-Z-]+(?:\s*\([A-Za-z /]+\))?){2,}\s*,?\s*$`)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalizer applies the cleaning rules. The zero value is not usable;
// construct with New.
type Normalizer struct {
	minLineLength int
}

// New returns a Normalizer dropping lines whose stripped length is below
// minLineLength. Values <= 0 select DefaultMinLineLength.
func New(minLineLength int) *Normalizer {
	if minLineLength <= 0 {
		minLineLength = DefaultMinLineLength
	}
	return &Normalizer{minLineLength: minLineLength}
}

// Normalize cleans raw extracted text. It is a pure function over the
// input: boilerplate lines are removed first, then runs of 3+ newlines
// collapse to 2 (paragraph boundaries survive for the segmenter), then
// lines shorter than the significance threshold are dropped.
//
// An empty result means the document carried no usable content and must
// be skipped by the caller; Normalize never fails.
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			// Blank lines survive this pass so paragraph breaks are
			// still visible to the newline collapse below.
			kept = append(kept, "")
			continue
		}
		if isBoilerplate(stripped) {
			continue
		}
		kept = append(kept, multiSpace.ReplaceAllString(stripped, " "))
	}

	text := strings.Join(kept, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")

	// Second pass: drop insignificant lines now that captions and
	// artifacts are gone.
	lines = strings.Split(text, "\n")
	kept = kept[:0]
	for _, line := range lines {
		if line == "" {
			kept = append(kept, "")
			continue
		}
		if len(line) < n.minLineLength {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func isBoilerplate(line string) bool {
	for _, p := range boilerplatePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	if authorListPattern.MatchString(line) {
		return true
	}
	// Lines that are mostly non-letters are layout artifacts.
	letters := 0
	for _, r := range line {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	return letters*10 < len(line)*3
}
