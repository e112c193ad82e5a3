package answer

import (
	"reflect"
	"testing"
)

func TestAnnotate_SinglePageCitation(t *testing.T) {
	a := Annotate("Revenue grew 12 percent [Document: annual-report.pdf, Page: 3].")
	if !a.Cited {
		t.Fatal("expected answer to count as cited")
	}
	want := []Citation{{Document: "annual-report.pdf", Pages: "3"}}
	if !reflect.DeepEqual(a.Citations, want) {
		t.Errorf("expected citations %v, got %v", want, a.Citations)
	}
}

func TestAnnotate_PageRangeCitation(t *testing.T) {
	a := Annotate("The policy spans several pages [Document: handbook.pdf, Pages: 4-6].")
	want := []Citation{{Document: "handbook.pdf", Pages: "4-6"}}
	if !reflect.DeepEqual(a.Citations, want) {
		t.Errorf("expected citations %v, got %v", want, a.Citations)
	}
}

func TestAnnotate_SpacedRangeNormalized(t *testing.T) {
	a := Annotate("See [Document: handbook.pdf, Pages: 4 - 6] for details.")
	if len(a.Citations) != 1 || a.Citations[0].Pages != "4-6" {
		t.Errorf("expected normalized range 4-6, got %v", a.Citations)
	}
}

func TestAnnotate_DeduplicatesRepeatedCitations(t *testing.T) {
	text := "Costs were flat [Document: report.pdf, Page: 2]. " +
		"Margins improved [Document: report.pdf, Page: 5]. " +
		"As noted, costs were flat [Document: report.pdf, Page: 2]."
	a := Annotate(text)
	want := []Citation{
		{Document: "report.pdf", Pages: "2"},
		{Document: "report.pdf", Pages: "5"},
	}
	if !reflect.DeepEqual(a.Citations, want) {
		t.Errorf("expected citations %v, got %v", want, a.Citations)
	}
}

func TestAnnotate_NotFound(t *testing.T) {
	a := Annotate(NotFoundAnswer)
	if !a.NotFound {
		t.Error("expected not-found flag")
	}
	if a.Cited {
		t.Error("expected no citations in a not-found answer")
	}
}

func TestAnnotate_UncitedAnswer(t *testing.T) {
	a := Annotate("Revenue grew considerably last year.")
	if a.Cited {
		t.Error("expected uncited answer to be flagged as such")
	}
	if a.NotFound {
		t.Error("expected not-found to stay false")
	}
}

func TestAnnotate_CharsCountsRunes(t *testing.T) {
	a := Annotate("héllo")
	if a.Chars != 5 {
		t.Errorf("expected 5 runes, got %d", a.Chars)
	}
}

func TestAnnotate_MultipleDocuments(t *testing.T) {
	text := "Q1 is covered in [Document: q1.pdf, Page: 1] and Q2 in [Document: q2.pdf, Pages: 2-3]."
	a := Annotate(text)
	want := []Citation{
		{Document: "q1.pdf", Pages: "1"},
		{Document: "q2.pdf", Pages: "2-3"},
	}
	if !reflect.DeepEqual(a.Citations, want) {
		t.Errorf("expected citations %v, got %v", want, a.Citations)
	}
}
