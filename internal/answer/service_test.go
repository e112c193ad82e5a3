package answer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/assemble"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

type mockCompleter struct {
	reply   Completion
	err     error
	calls   int
	lastReq PromptRequest
}

func (m *mockCompleter) Complete(ctx context.Context, req PromptRequest) (Completion, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return Completion{}, m.err
	}
	return m.reply, nil
}

func newTestService(m *mockCompleter, window int) *Service {
	return NewService(m, window, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func usablePackage(t *testing.T) *assemble.Package {
	t.Helper()
	s := pagetext.New("ledger.pdf")
	if err := s.Put(1, "Total liabilities were 4.2M at year end.", pagetext.TextLayer); err != nil {
		t.Fatalf("put: %v", err)
	}
	pkg := assemble.Assemble([]*pagetext.Store{s}, assemble.DefaultConfig())
	return &pkg
}

func TestService_Ask_NoContextMakesNoCall(t *testing.T) {
	m := &mockCompleter{}
	svc := newTestService(m, 12)

	_, err := svc.Ask(context.Background(), &assemble.Package{}, "What were liabilities?", nil)
	if !errors.Is(err, ErrEmptyContext) {
		t.Fatalf("expected ErrEmptyContext, got %v", err)
	}
	if m.calls != 0 {
		t.Errorf("expected zero completion calls, got %d", m.calls)
	}
}

func TestService_Ask_BlankQuestionMakesNoCall(t *testing.T) {
	m := &mockCompleter{}
	svc := newTestService(m, 12)

	_, err := svc.Ask(context.Background(), usablePackage(t), "   ", nil)
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if m.calls != 0 {
		t.Errorf("expected zero completion calls, got %d", m.calls)
	}
}

func TestService_Ask_Success(t *testing.T) {
	m := &mockCompleter{reply: Completion{
		Text:        "Liabilities were 4.2M [Document: ledger.pdf, Page: 1].",
		TotalTokens: 850,
	}}
	svc := newTestService(m, 12)

	ans, err := svc.Ask(context.Background(), usablePackage(t), "What were liabilities?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.calls != 1 {
		t.Fatalf("expected exactly one completion call, got %d", m.calls)
	}
	if !ans.Cited {
		t.Error("expected answer to be annotated as cited")
	}
	if len(ans.Citations) != 1 || ans.Citations[0].Document != "ledger.pdf" {
		t.Errorf("expected a ledger.pdf citation, got %v", ans.Citations)
	}
	if ans.Tokens != 850 {
		t.Errorf("expected 850 tokens, got %d", ans.Tokens)
	}
	if snap := svc.Stats().Snapshot(); snap.Count != 1 {
		t.Errorf("expected one recorded sample, got %d", snap.Count)
	}
}

func TestService_Ask_CompletionErrorPassesThrough(t *testing.T) {
	m := &mockCompleter{err: &CompletionError{Status: 429, Detail: "rate limited"}}
	svc := newTestService(m, 12)

	_, err := svc.Ask(context.Background(), usablePackage(t), "What were liabilities?", nil)
	var ce *CompletionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompletionError, got %v", err)
	}
	if ce.Status != 429 {
		t.Errorf("expected status 429, got %d", ce.Status)
	}
	if snap := svc.Stats().Snapshot(); snap.Count != 0 {
		t.Errorf("expected no recorded sample for a failed call, got %d", snap.Count)
	}
}

func TestService_Ask_HistoryWindowed(t *testing.T) {
	m := &mockCompleter{reply: Completion{Text: NotFoundAnswer}}
	svc := newTestService(m, 4)

	history := make([]Turn, 0, 20)
	for i := 0; i < 10; i++ {
		history = append(history, Turn{Role: RoleUser, Content: fmt.Sprintf("question %d", i)})
		history = append(history, Turn{Role: RoleAssistant, Content: fmt.Sprintf("answer %d", i)})
	}

	_, err := svc.Ask(context.Background(), usablePackage(t), "Latest?", history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.lastReq.History) != 4 {
		t.Fatalf("expected history capped at 4 turns, got %d", len(m.lastReq.History))
	}
	if m.lastReq.History[3].Content != "answer 9" {
		t.Errorf("expected the most recent turns to survive, got %q", m.lastReq.History[3].Content)
	}
}

func TestService_Ask_TruncationSurfaced(t *testing.T) {
	stores := make([]*pagetext.Store, 0, 4)
	for i := 0; i < 4; i++ {
		s := pagetext.New(fmt.Sprintf("doc%d.pdf", i))
		for p := 1; p <= 8; p++ {
			s.Put(p, "page body text that is long enough to matter", pagetext.TextLayer)
		}
		stores = append(stores, s)
	}
	pkg := assemble.Assemble(stores, assemble.Config{GroupSize: 2, MaxChunks: 10})
	if !pkg.Truncated {
		t.Fatal("expected assembled package to be truncated")
	}

	m := &mockCompleter{reply: Completion{Text: NotFoundAnswer}}
	svc := newTestService(m, 12)
	ans, err := svc.Ask(context.Background(), &pkg, "Anything?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ans.ContextTruncated {
		t.Error("expected truncation to be disclosed on the answer")
	}
}
