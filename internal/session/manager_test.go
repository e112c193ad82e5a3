package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/answer"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/auth"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

func processedStore(t *testing.T, name string, pages ...string) *pagetext.Store {
	t.Helper()
	store := pagetext.New(name)
	for i, text := range pages {
		if err := store.Put(i+1, text, pagetext.TextLayer); err != nil {
			t.Fatalf("put page %d: %v", i+1, err)
		}
	}
	store.SetMethod(pagetext.TextLayer)
	return store
}

func starterUser() auth.User {
	return auth.User{Email: "user@example.com", Plan: "starter"}
}

func TestSession_AddDocumentOrder(t *testing.T) {
	s := newSession(starterUser())
	s.AddDocument(processedStore(t, "b.pdf", "text b"))
	s.AddDocument(processedStore(t, "a.pdf", "text a"))
	s.AddDocument(processedStore(t, "c.pdf", "text c"))

	docs := s.Documents()
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	want := []string{"b.pdf", "a.pdf", "c.pdf"}
	for i, name := range want {
		if docs[i].Name() != name {
			t.Errorf("expected document %d to be %q, got %q", i, name, docs[i].Name())
		}
	}
}

func TestSession_ReplaceKeepsPosition(t *testing.T) {
	s := newSession(starterUser())
	s.AddDocument(processedStore(t, "first.pdf", "old"))
	s.AddDocument(processedStore(t, "second.pdf", "unchanged"))

	replacement := processedStore(t, "first.pdf", "new text after reprocess")
	s.AddDocument(replacement)

	docs := s.Documents()
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents after replace, got %d", len(docs))
	}
	if docs[0] != replacement {
		t.Error("expected replacement store at the original position")
	}
	if got := s.DocsUsed(); got != 3 {
		t.Errorf("expected 3 docs used (reprocess counts), got %d", got)
	}
}

func TestSession_RemoveDocument(t *testing.T) {
	s := newSession(starterUser())
	s.AddDocument(processedStore(t, "keep.pdf", "text"))
	s.AddDocument(processedStore(t, "drop.pdf", "text"))

	if !s.RemoveDocument("drop.pdf") {
		t.Fatal("expected removal to succeed")
	}
	if s.DocumentCount() != 1 {
		t.Errorf("expected 1 document left, got %d", s.DocumentCount())
	}
	if _, ok := s.Document("drop.pdf"); ok {
		t.Error("expected removed document to be gone")
	}
	// Quota usage stays at two processes.
	if got := s.DocsUsed(); got != 2 {
		t.Errorf("expected docs used to stay at 2, got %d", got)
	}
}

func TestSession_RemoveMissing(t *testing.T) {
	s := newSession(starterUser())
	if s.RemoveDocument("nope.pdf") {
		t.Error("expected removal of unknown document to report false")
	}
}

func TestSession_QuotaExceeded(t *testing.T) {
	s := newSession(starterUser())
	quota := starterUser().Limits().DocQuota

	for i := 0; i < quota-1; i++ {
		s.AddDocument(processedStore(t, fmt.Sprintf("doc-%d.pdf", i), "text"))
	}
	if s.QuotaExceeded() {
		t.Fatalf("expected quota not exceeded at %d of %d", quota-1, quota)
	}
	s.AddDocument(processedStore(t, "last.pdf", "text"))
	if !s.QuotaExceeded() {
		t.Errorf("expected quota exceeded at %d of %d", quota, quota)
	}
}

func TestSession_HistoryRoundTrip(t *testing.T) {
	s := newSession(starterUser())
	s.AppendTurn(answer.RoleUser, "what is the balance?")
	s.AppendTurn(answer.RoleAssistant, "The balance is 1,200 [Document: a.pdf, Page: 3]")

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	if history[0].Role != answer.RoleUser {
		t.Errorf("expected first turn role %q, got %q", answer.RoleUser, history[0].Role)
	}

	// The returned slice is a copy.
	history[0].Content = "mutated"
	if s.History()[0].Content == "mutated" {
		t.Error("expected History to return a copy")
	}

	s.ClearHistory()
	if len(s.History()) != 0 {
		t.Error("expected empty history after clear")
	}
}

func TestSession_ClearHistoryKeepsDocuments(t *testing.T) {
	s := newSession(starterUser())
	s.AddDocument(processedStore(t, "a.pdf", "text"))
	s.AppendTurn(answer.RoleUser, "question")
	s.ClearHistory()

	if s.DocumentCount() != 1 {
		t.Error("expected documents to survive history clear")
	}
	if got := s.DocsUsed(); got != 1 {
		t.Errorf("expected quota usage to survive history clear, got %d", got)
	}
}

func TestSession_Account(t *testing.T) {
	s := newSession(starterUser())
	store := processedStore(t, "ledger.pdf", "page one text", "page two text")
	store.SetSize(2 * 1024 * 1024)
	s.AddDocument(store)
	s.AppendTurn(answer.RoleUser, "question")

	acct := s.Account()
	if acct.Email != "user@example.com" {
		t.Errorf("expected email %q, got %q", "user@example.com", acct.Email)
	}
	if acct.Plan != "starter" {
		t.Errorf("expected plan %q, got %q", "starter", acct.Plan)
	}
	if acct.DocumentsUsed != 1 {
		t.Errorf("expected 1 document used, got %d", acct.DocumentsUsed)
	}
	if acct.DocumentQuota != 50 {
		t.Errorf("expected quota 50, got %d", acct.DocumentQuota)
	}
	if acct.StorageUsedMB != 2.0 {
		t.Errorf("expected 2.0 MB used, got %v", acct.StorageUsedMB)
	}
	if acct.StorageQuotaMB != 500 {
		t.Errorf("expected 500 MB storage quota, got %d", acct.StorageQuotaMB)
	}
	if acct.HistoryTurns != 1 {
		t.Errorf("expected 1 history turn, got %d", acct.HistoryTurns)
	}
}

func TestSession_DocumentList(t *testing.T) {
	s := newSession(starterUser())
	list := s.DocumentList()
	if list == nil {
		t.Fatal("expected non-nil list for empty session")
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(list))
	}

	store := processedStore(t, "report.pdf", "hello world")
	s.AddDocument(store)
	list = s.DocumentList()
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
	if list[0].Name != "report.pdf" {
		t.Errorf("expected name %q, got %q", "report.pdf", list[0].Name)
	}
	if list[0].Pages != 1 {
		t.Errorf("expected 1 page, got %d", list[0].Pages)
	}
	if list[0].Method != "text_layer" {
		t.Errorf("expected method %q, got %q", "text_layer", list[0].Method)
	}
}

func TestManager_CreateGet(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create(starterUser())
	if s.Token == "" {
		t.Fatal("expected non-empty token")
	}

	got := m.Get(s.Token)
	if got == nil {
		t.Fatal("expected to get session back")
	}
	if got.User.Email != "user@example.com" {
		t.Errorf("expected email %q, got %q", "user@example.com", got.User.Email)
	}
}

func TestManager_GetMissing(t *testing.T) {
	m := NewManager(time.Hour)
	if m.Get("nonexistent") != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestManager_UniqueTokens(t *testing.T) {
	m := NewManager(time.Hour)
	a := m.Create(starterUser())
	b := m.Create(starterUser())
	if a.Token == b.Token {
		t.Error("expected distinct tokens for distinct sessions")
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create(starterUser())
	m.Delete(s.Token)
	if m.Get(s.Token) != nil {
		t.Error("expected deleted session to be gone")
	}
	if m.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", m.Count())
	}
}

func TestManager_IdleExpiry(t *testing.T) {
	m := NewManager(50 * time.Millisecond)
	s := m.Create(starterUser())

	// Wait past the idle window.
	time.Sleep(100 * time.Millisecond)

	if m.Get(s.Token) != nil {
		t.Error("expected idle session to expire on access")
	}
	if m.Count() != 0 {
		t.Errorf("expected expired session to be dropped, got %d", m.Count())
	}
}

func TestManager_GetRefreshesIdleClock(t *testing.T) {
	m := NewManager(80 * time.Millisecond)
	s := m.Create(starterUser())

	// Keep touching the session more often than the idle window.
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		if m.Get(s.Token) == nil {
			t.Fatalf("expected active session to survive access %d", i)
		}
	}
}

func TestManager_Cleanup(t *testing.T) {
	m := NewManager(50 * time.Millisecond)
	stale := m.Create(starterUser())

	time.Sleep(100 * time.Millisecond)

	fresh := m.Create(starterUser())
	m.Cleanup()

	if m.Get(stale.Token) != nil {
		t.Error("expected stale session to be cleaned up")
	}
	if m.Get(fresh.Token) == nil {
		t.Error("expected fresh session to survive cleanup")
	}
}

func TestManager_CleanupEmpty(t *testing.T) {
	m := NewManager(time.Hour)
	// Should not panic with no sessions.
	m.Cleanup()
}
