package answer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Citation is one page reference parsed out of an answer.
type Citation struct {
	Document string `json:"document"`
	Pages    string `json:"pages"`
}

var citationPattern = regexp.MustCompile(`\[Document:\s*([^,\]]+),\s*Pages?:\s*(\d+(?:\s*-\s*\d+)?)\]`)

// Annotation is the format bookkeeping attached to a model answer: length,
// the citations it claims, and whether it declared the information missing.
// Citations are parsed and surfaced, never verified against the source text.
type Annotation struct {
	Chars     int        `json:"chars"`
	Citations []Citation `json:"citations,omitempty"`
	Cited     bool       `json:"cited"`
	NotFound  bool       `json:"not_found"`
}

// Annotate runs the bookkeeping over one answer.
func Annotate(text string) Annotation {
	a := Annotation{Chars: utf8.RuneCountInString(text)}
	seen := map[Citation]bool{}
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		c := Citation{
			Document: strings.TrimSpace(m[1]),
			Pages:    strings.ReplaceAll(m[2], " ", ""),
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		a.Citations = append(a.Citations, c)
	}
	a.Cited = len(a.Citations) > 0
	a.NotFound = strings.Contains(text, NotFoundAnswer)
	return a
}
