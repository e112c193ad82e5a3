package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

// Config controls context assembly.
type Config struct {
	GroupSize int // Consecutive pages per chunk.
	MaxChunks int // Cap on chunks across all documents.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GroupSize: 2,
		MaxChunks: 10,
	}
}

// Chunk is a page-bounded slice of one document's text, tagged with the
// pages it covers so an answer citing those pages can be checked against it.
type Chunk struct {
	Document string `json:"document"`
	Pages    []int  `json:"pages"`
	Text     string `json:"text"`
}

// Package is the assembled, bounded context for one question.
type Package struct {
	Chunks    []Chunk `json:"chunks"`
	Truncated bool    `json:"truncated"`
}

// Empty reports whether there is no context to answer from.
func (p *Package) Empty() bool { return len(p.Chunks) == 0 }

// EstimatedTokens sizes the rendered context for logging.
func (p *Package) EstimatedTokens() int { return EstimateTokens(p.Render()) }

// Assemble groups each store's pages into consecutive runs of GroupSize (the
// last run may be smaller) and concatenates chunks document-major in the
// order the stores are given. Past MaxChunks the rest is dropped and the
// package is marked truncated; the caller discloses that, it is never
// silent.
func Assemble(stores []*pagetext.Store, cfg Config) Package {
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 2
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 10
	}

	var pkg Package
	for _, store := range stores {
		entries := store.Entries()
		for start := 0; start < len(entries); start += cfg.GroupSize {
			end := start + cfg.GroupSize
			if end > len(entries) {
				end = len(entries)
			}
			pkg.Chunks = append(pkg.Chunks, buildChunk(store.Name(), entries[start:end]))
		}
	}

	if len(pkg.Chunks) > cfg.MaxChunks {
		pkg.Chunks = pkg.Chunks[:cfg.MaxChunks]
		pkg.Truncated = true
	}
	return pkg
}

// buildChunk renders one page group. Pages without ok text still contribute
// their header so the chunk's page list stays faithful to the document.
func buildChunk(document string, group []pagetext.Entry) Chunk {
	chunk := Chunk{Document: document, Pages: make([]int, 0, len(group))}
	var sb strings.Builder
	for i, e := range group {
		chunk.Pages = append(chunk.Pages, e.Page)
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[Page ")
		sb.WriteString(strconv.Itoa(e.Page))
		sb.WriteString("]\n")
		if e.Status == pagetext.StatusOk {
			sb.WriteString(e.Text)
		}
	}
	chunk.Text = sb.String()
	return chunk
}

// Render flattens the package into the prompt-ready context block.
func (p *Package) Render() string {
	sections := make([]string, 0, len(p.Chunks))
	for _, c := range p.Chunks {
		sections = append(sections, fmt.Sprintf("Document: %s\nPages: %s\nContent:\n%s", c.Document, FormatPages(c.Pages), c.Text))
	}
	return strings.Join(sections, "\n\n---\n\n")
}

// FormatPages renders a page list compactly, collapsing contiguous runs into
// ranges: [12 13] -> "12-13", [3 4 7] -> "3-4, 7".
func FormatPages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	var parts []string
	start, prev := pages[0], pages[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
			return
		}
		parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
	}
	for _, p := range pages[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return strings.Join(parts, ", ")
}
