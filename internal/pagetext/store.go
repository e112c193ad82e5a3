package pagetext

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Method identifies which extraction strategy produced a page's text.
type Method string

const (
	TextLayer Method = "text_layer"
	LocalOCR  Method = "local_ocr"
	CloudOCR  Method = "cloud_ocr"
)

// EntryStatus distinguishes a page that extracted cleanly from one that was
// genuinely blank and from one whose extraction failed. An empty string alone
// cannot make that distinction.
type EntryStatus string

const (
	StatusOk    EntryStatus = "ok"
	StatusEmpty EntryStatus = "empty"
	StatusError EntryStatus = "error"
)

// MinUsableChars is the floor below which an extraction result is not worth
// answering questions from.
const MinUsableChars = 100

var ErrInvalidPage = errors.New("page number must be positive")

// Entry is the extracted text of a single page plus its provenance.
type Entry struct {
	Page   int         `json:"page"`
	Text   string      `json:"text,omitempty"`
	Method Method      `json:"method"`
	Chars  int         `json:"chars"`
	Status EntryStatus `json:"status"`
	Reason string      `json:"reason,omitempty"` // human-readable, only for error entries
}

// Store holds the page-indexed text of exactly one document. It is built by
// the extraction cascade, then published to a session and treated as
// read-only; reprocessing replaces the whole store rather than mutating it.
type Store struct {
	name    string
	method  Method
	size    int64
	created time.Time
	entries []Entry // sorted by page, unique
}

func New(name string) *Store {
	return &Store{
		name:    name,
		created: time.Now(),
	}
}

// Put inserts or replaces the entry for a page. Blank text (after trimming)
// is recorded as a status-empty entry so the page still appears in the
// document's page accounting.
func (s *Store) Put(page int, text string, method Method) error {
	if page <= 0 {
		return ErrInvalidPage
	}
	e := Entry{Page: page, Method: method}
	if strings.TrimSpace(text) == "" {
		e.Status = StatusEmpty
	} else {
		e.Status = StatusOk
		e.Text = text
		e.Chars = utf8.RuneCountInString(text)
	}
	s.insert(e)
	return nil
}

// PutError records a page whose extraction failed. The reason replaces the
// text; it is never fed into a prompt.
func (s *Store) PutError(page int, reason string, method Method) error {
	if page <= 0 {
		return ErrInvalidPage
	}
	s.insert(Entry{Page: page, Method: method, Status: StatusError, Reason: reason})
	return nil
}

func (s *Store) insert(e Entry) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Page >= e.Page })
	if i < len(s.entries) && s.entries[i].Page == e.Page {
		s.entries[i] = e
		return
	}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

func (s *Store) Name() string         { return s.name }
func (s *Store) MethodUsed() Method   { return s.method }
func (s *Store) Size() int64          { return s.size }
func (s *Store) CreatedAt() time.Time { return s.created }

// SetMethod records which strategy won the cascade. Called before the store
// is published.
func (s *Store) SetMethod(m Method) { s.method = m }

// SetSize records the source file size in bytes.
func (s *Store) SetSize(n int64) { s.size = n }

// PageCount is the number of pages with entries, whatever their status.
func (s *Store) PageCount() int { return len(s.entries) }

// OkPageCount is the number of pages that extracted non-blank text.
func (s *Store) OkPageCount() int {
	n := 0
	for _, e := range s.entries {
		if e.Status == StatusOk {
			n++
		}
	}
	return n
}

// Pages returns the page numbers in ascending order.
func (s *Store) Pages() []int {
	pages := make([]int, len(s.entries))
	for i, e := range s.entries {
		pages[i] = e.Page
	}
	return pages
}

// Entries returns a copy of all entries in page order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry returns the entry for a page, if present.
func (s *Store) Entry(page int) (Entry, bool) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].Page >= page })
	if i < len(s.entries) && s.entries[i].Page == page {
		return s.entries[i], true
	}
	return Entry{}, false
}

// TotalChars sums the character counts of ok entries. This is the quality
// signal the cascade compares attempts by.
func (s *Store) TotalChars() int {
	total := 0
	for _, e := range s.entries {
		if e.Status == StatusOk {
			total += e.Chars
		}
	}
	return total
}

// IsUsable reports whether the store holds enough text to answer from: at
// least one ok page and at least MinUsableChars characters overall.
func (s *Store) IsUsable() bool {
	return s.OkPageCount() > 0 && s.TotalChars() >= MinUsableChars
}

// Preview renders the first maxRunes characters of the page-tagged text for
// display, appending an ellipsis when truncated.
func (s *Store) Preview(maxRunes int) string {
	var sb strings.Builder
	for _, e := range s.entries {
		if e.Status != StatusOk {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[Page ")
		sb.WriteString(strconv.Itoa(e.Page))
		sb.WriteString("]\n")
		sb.WriteString(e.Text)
	}
	out := sb.String()
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		runes := []rune(out)
		out = string(runes[:maxRunes]) + "..."
	}
	return out
}
