package assemble

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

func storeWithPages(t *testing.T, name string, pages ...int) *pagetext.Store {
	t.Helper()
	s := pagetext.New(name)
	for _, p := range pages {
		if err := s.Put(p, fmt.Sprintf("body of page %d", p), pagetext.TextLayer); err != nil {
			t.Fatalf("put page %d: %v", p, err)
		}
	}
	return s
}

func TestAssemble_FivePagesInGroupsOfTwo(t *testing.T) {
	s := storeWithPages(t, "report.pdf", 1, 2, 3, 4, 5)
	pkg := Assemble([]*pagetext.Store{s}, Config{GroupSize: 2, MaxChunks: 10})

	if len(pkg.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(pkg.Chunks))
	}
	want := [][]int{{1, 2}, {3, 4}, {5}}
	for i, w := range want {
		if !reflect.DeepEqual(pkg.Chunks[i].Pages, w) {
			t.Errorf("chunk %d: expected pages %v, got %v", i, w, pkg.Chunks[i].Pages)
		}
	}
	if pkg.Truncated {
		t.Error("expected no truncation for 3 chunks")
	}
}

func TestAssemble_RoundTripPageOrder(t *testing.T) {
	// Concatenating each document's chunk page lists must reproduce the
	// store's page order with no gaps or duplicates.
	a := storeWithPages(t, "a.pdf", 1, 2, 3, 4, 5, 6, 7)
	b := storeWithPages(t, "b.pdf", 2, 3, 5, 8)
	pkg := Assemble([]*pagetext.Store{a, b}, Config{GroupSize: 2, MaxChunks: 100})

	got := map[string][]int{}
	for _, c := range pkg.Chunks {
		got[c.Document] = append(got[c.Document], c.Pages...)
	}
	if !reflect.DeepEqual(got["a.pdf"], a.Pages()) {
		t.Errorf("a.pdf: expected pages %v, got %v", a.Pages(), got["a.pdf"])
	}
	if !reflect.DeepEqual(got["b.pdf"], b.Pages()) {
		t.Errorf("b.pdf: expected pages %v, got %v", b.Pages(), got["b.pdf"])
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	stores := []*pagetext.Store{
		storeWithPages(t, "a.pdf", 1, 2, 3),
		storeWithPages(t, "b.pdf", 1, 2),
	}
	cfg := Config{GroupSize: 2, MaxChunks: 10}

	first := Assemble(stores, cfg)
	second := Assemble(stores, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical packages from identical inputs")
	}
	if first.Render() != second.Render() {
		t.Error("expected byte-identical rendering")
	}
}

func TestAssemble_TruncatesAtMaxChunks(t *testing.T) {
	s := storeWithPages(t, "long.pdf", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	pkg := Assemble([]*pagetext.Store{s}, Config{GroupSize: 2, MaxChunks: 5})

	if len(pkg.Chunks) != 5 {
		t.Fatalf("expected 5 chunks after truncation, got %d", len(pkg.Chunks))
	}
	if !pkg.Truncated {
		t.Error("expected truncation to be surfaced")
	}
	last := pkg.Chunks[4]
	if !reflect.DeepEqual(last.Pages, []int{9, 10}) {
		t.Errorf("expected the first chunks to survive in order, last covers %v", last.Pages)
	}
}

func TestAssemble_DocumentMajorOrder(t *testing.T) {
	a := storeWithPages(t, "first.pdf", 1, 2, 3)
	b := storeWithPages(t, "second.pdf", 1)
	pkg := Assemble([]*pagetext.Store{a, b}, Config{GroupSize: 2, MaxChunks: 10})

	wantDocs := []string{"first.pdf", "first.pdf", "second.pdf"}
	if len(pkg.Chunks) != len(wantDocs) {
		t.Fatalf("expected %d chunks, got %d", len(wantDocs), len(pkg.Chunks))
	}
	for i, w := range wantDocs {
		if pkg.Chunks[i].Document != w {
			t.Errorf("chunk %d: expected document %q, got %q", i, w, pkg.Chunks[i].Document)
		}
	}
}

func TestAssemble_ChunkTextCarriesPageHeaders(t *testing.T) {
	s := pagetext.New("doc.pdf")
	s.Put(1, "first page text", pagetext.TextLayer)
	s.Put(2, "second page text", pagetext.TextLayer)
	pkg := Assemble([]*pagetext.Store{s}, Config{GroupSize: 2, MaxChunks: 10})

	if len(pkg.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(pkg.Chunks))
	}
	want := "[Page 1]\nfirst page text\n\n[Page 2]\nsecond page text"
	if pkg.Chunks[0].Text != want {
		t.Errorf("expected chunk text %q, got %q", want, pkg.Chunks[0].Text)
	}
}

func TestAssemble_NonOkPagesKeepTheirPlace(t *testing.T) {
	s := pagetext.New("mixed.pdf")
	s.Put(1, "readable", pagetext.TextLayer)
	s.Put(2, "   ", pagetext.TextLayer)
	s.PutError(3, "damaged content stream", pagetext.TextLayer)
	pkg := Assemble([]*pagetext.Store{s}, Config{GroupSize: 3, MaxChunks: 10})

	if len(pkg.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(pkg.Chunks))
	}
	c := pkg.Chunks[0]
	if !reflect.DeepEqual(c.Pages, []int{1, 2, 3}) {
		t.Errorf("expected all pages accounted for, got %v", c.Pages)
	}
	for _, header := range []string{"[Page 1]", "[Page 2]", "[Page 3]"} {
		if !strings.Contains(c.Text, header) {
			t.Errorf("expected chunk text to contain %q", header)
		}
	}
	if strings.Contains(c.Text, "damaged content stream") {
		t.Error("error reasons must not leak into prompt text")
	}
}

func TestAssemble_ZeroConfigUsesDefaults(t *testing.T) {
	s := storeWithPages(t, "doc.pdf", 1, 2, 3)
	pkg := Assemble([]*pagetext.Store{s}, Config{})
	if len(pkg.Chunks) != 2 {
		t.Errorf("expected default group size 2 to yield 2 chunks, got %d", len(pkg.Chunks))
	}
}

func TestAssemble_NoStores(t *testing.T) {
	pkg := Assemble(nil, DefaultConfig())
	if !pkg.Empty() {
		t.Error("expected empty package for no stores")
	}
	if pkg.Render() != "" {
		t.Errorf("expected empty rendering, got %q", pkg.Render())
	}
}

func TestPackage_Render(t *testing.T) {
	a := storeWithPages(t, "a.pdf", 1, 2)
	b := storeWithPages(t, "b.pdf", 7)
	pkg := Assemble([]*pagetext.Store{a, b}, Config{GroupSize: 2, MaxChunks: 10})

	rendered := pkg.Render()
	if !strings.Contains(rendered, "Document: a.pdf\nPages: 1-2\nContent:\n") {
		t.Errorf("expected a.pdf section header, got %q", rendered)
	}
	if !strings.Contains(rendered, "Document: b.pdf\nPages: 7\nContent:\n") {
		t.Errorf("expected b.pdf section header, got %q", rendered)
	}
	if !strings.Contains(rendered, "\n\n---\n\n") {
		t.Error("expected sections to be separated by a divider")
	}
}

func TestFormatPages(t *testing.T) {
	cases := []struct {
		pages []int
		want  string
	}{
		{nil, ""},
		{[]int{5}, "5"},
		{[]int{12, 13}, "12-13"},
		{[]int{3, 4, 7}, "3-4, 7"},
		{[]int{1, 2, 3, 7, 9, 10}, "1-3, 7, 9-10"},
	}
	for _, c := range cases {
		if got := FormatPages(c.pages); got != c.want {
			t.Errorf("FormatPages(%v): expected %q, got %q", c.pages, c.want, got)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
	if got := EstimateTokens("x"); got < 1 {
		t.Errorf("expected at least 1 token for non-empty text, got %d", got)
	}
	// 100 words at ~1.33 tokens/word.
	got := EstimateTokens(strings.Repeat("word ", 100))
	if got < 120 || got > 140 {
		t.Errorf("expected roughly 133 tokens for 100 words, got %d", got)
	}
}
