package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var newlineRuns = regexp.MustCompile(`\n{3,}`)

// CleanText normalizes extractor and OCR output before it is counted or fed
// into a prompt: line endings become LF, control characters other than tab
// and newline are dropped (OCR output is full of them), runs of blank lines
// collapse to one, and surrounding whitespace is trimmed.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '�':
			// Replacement characters from bad decodes carry no content.
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	out := newlineRuns.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}
