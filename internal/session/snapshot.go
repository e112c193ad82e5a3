package session

import (
	"time"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

// DocumentInfo is the JSON-safe listing view of one published store.
type DocumentInfo struct {
	Name       string    `json:"name"`
	Pages      int       `json:"pages"`
	OkPages    int       `json:"ok_pages"`
	Chars      int       `json:"chars"`
	Method     string    `json:"method"`
	SizeMB     float64   `json:"size_mb"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AccountSnapshot is the JSON-safe view of a session's identity and usage.
type AccountSnapshot struct {
	Email          string    `json:"email"`
	Plan           string    `json:"plan"`
	DocumentsUsed  int       `json:"documents_used"`
	DocumentQuota  int       `json:"document_quota"`
	StorageUsedMB  float64   `json:"storage_used_mb"`
	StorageQuotaMB int       `json:"storage_quota_mb"`
	Documents      int       `json:"documents"`
	HistoryTurns   int       `json:"history_turns"`
	CreatedAt      time.Time `json:"created_at"`
}

func docInfo(store *pagetext.Store) DocumentInfo {
	return DocumentInfo{
		Name:       store.Name(),
		Pages:      store.PageCount(),
		OkPages:    store.OkPageCount(),
		Chars:      store.TotalChars(),
		Method:     string(store.MethodUsed()),
		SizeMB:     mb(store.Size()),
		UploadedAt: store.CreatedAt(),
	}
}

// DocumentList returns listing views in upload order, never nil.
func (s *Session) DocumentList() []DocumentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DocumentInfo, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, docInfo(s.docs[name]))
	}
	return out
}

// Account returns the usage view the account endpoint serves.
func (s *Session) Account() AccountSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	limits := s.User.Limits()
	return AccountSnapshot{
		Email:          s.User.Email,
		Plan:           s.User.Plan,
		DocumentsUsed:  s.docsUsed,
		DocumentQuota:  limits.DocQuota,
		StorageUsedMB:  mb(s.bytes),
		StorageQuotaMB: limits.StorageMB,
		Documents:      len(s.docs),
		HistoryTurns:   len(s.history),
		CreatedAt:      s.CreatedAt,
	}
}

func mb(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
