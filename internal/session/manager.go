package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/answer"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/auth"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

// Session is one user's login: their processed documents, running
// conversation, and quota accounting. Created on login, destroyed on logout
// or idle expiry. Stores are published whole and replaced whole; a reader
// holding one keeps a consistent version while a reprocess swaps it out.
type Session struct {
	mu sync.Mutex

	Token     string
	User      auth.User
	CreatedAt time.Time

	lastSeen time.Time
	docs     map[string]*pagetext.Store
	order    []string
	history  []answer.Turn
	docsUsed int
	bytes    int64
}

func newSession(user auth.User) *Session {
	now := time.Now()
	return &Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: now,
		lastSeen:  now,
		docs:      make(map[string]*pagetext.Store),
	}
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// AddDocument publishes a processed store and counts it against the quota.
// Reprocessing a document replaces the store but keeps its position.
func (s *Session) AddDocument(store *pagetext.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := store.Name()
	if _, exists := s.docs[name]; !exists {
		s.order = append(s.order, name)
	}
	s.docs[name] = store
	s.docsUsed++
	s.bytes += store.Size()
	s.lastSeen = time.Now()
}

// RemoveDocument drops a published store. Quota usage is not refunded.
func (s *Session) RemoveDocument(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return false
	}
	delete(s.docs, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Document returns one published store by name.
func (s *Session) Document(name string) (*pagetext.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.docs[name]
	return store, ok
}

// Documents returns the published stores in upload order.
func (s *Session) Documents() []*pagetext.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pagetext.Store, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.docs[name])
	}
	return out
}

func (s *Session) DocumentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// DocsUsed counts successful processes in this session, including
// reprocesses. The quota gate compares it against the plan limit.
func (s *Session) DocsUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docsUsed
}

// BytesUsed sums the source sizes of processed documents.
func (s *Session) BytesUsed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// QuotaMessage is the user-facing text returned when a process would go
// over the plan's document quota.
const QuotaMessage = "Document quota exceeded. Upgrade to Pro plan."

// QuotaExceeded reports whether another process would go over the plan's
// document quota.
func (s *Session) QuotaExceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docsUsed >= s.User.Limits().DocQuota
}

// AppendTurn records one side of an exchange.
func (s *Session) AppendTurn(role answer.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, answer.Turn{Role: role, Content: content})
	s.lastSeen = time.Now()
}

// History returns a copy of the conversation so far.
func (s *Session) History() []answer.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]answer.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory wipes the conversation, keeping documents and quota intact.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Manager is a thread-safe session registry with idle expiry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create opens a session for an authenticated user.
func (m *Manager) Create(user auth.User) *Session {
	s := newSession(user)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return s
}

// Get resolves a token, refreshing the idle clock. Expired sessions are
// dropped on sight and report as absent.
func (m *Manager) Get(token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if time.Since(s.LastSeen()) > m.ttl {
		delete(m.sessions, token)
		return nil
	}
	s.Touch()
	return s
}

// Delete ends a session.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Cleanup removes idle sessions.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for token, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			delete(m.sessions, token)
		}
	}
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
