package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/extract"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pipeline"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	// Limit total request size, with headroom for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	kind, err := extract.DetectKind(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "empty file", http.StatusBadRequest)
		return
	}

	if sess.QuotaExceeded() {
		jsonError(w, session.QuotaMessage, http.StatusForbidden)
		return
	}

	job := pipeline.NewJob(filename, kind, data, sess)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	// A worker may already be mutating the job; report the state it was
	// accepted in, not the live status.
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"document": job.Document,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/documents/jobs/%s", job.ID),
	})
}

// ownedJob resolves a job ID to a job owned by the request session. Foreign
// jobs read as absent so IDs cannot be probed across sessions.
func (s *Server) ownedJob(r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil || job.Owner() != sessionFrom(r) {
		return nil
	}
	return job
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.ownedJob(r)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()

	resp := map[string]any{
		"job_id":   snap.ID,
		"document": snap.Document,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"errors":   snap.Errors,
	}
	if snap.Report != nil {
		resp["report"] = snap.Report
		resp["summary"] = snap.Report.Status()
	}
	if snap.Preview != "" {
		resp["preview"] = snap.Preview
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	job := s.ownedJob(r)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	job.Cancel()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    job.ID,
		"cancelled": true,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": sess.DocumentList(),
	})
}

// pageStatus is the per-page view in document detail. Text stays out of it:
// detail is for diagnosing extractions, not reading them.
type pageStatus struct {
	Page   int    `json:"page"`
	Status string `json:"status"`
	Chars  int    `json:"chars"`
	Method string `json:"method"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleDocumentDetail(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	name := documentName(r)
	store, ok := sess.Document(name)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	entries := store.Entries()
	pages := make([]pageStatus, len(entries))
	for i, e := range entries {
		pages[i] = pageStatus{
			Page:   e.Page,
			Status: string(e.Status),
			Chars:  e.Chars,
			Method: string(e.Method),
			Reason: e.Reason,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    store.Name(),
		"method":  store.MethodUsed(),
		"pages":   store.PageCount(),
		"chars":   store.TotalChars(),
		"usable":  store.IsUsable(),
		"detail":  pages,
		"preview": store.Preview(1000),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	name := documentName(r)
	if !sess.RemoveDocument(name) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Info("document removed", "document", name, "email", sess.User.Email)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"removed": name})
}

// documentName pulls the {name} route parameter, unescaping so names with
// spaces round-trip.
func documentName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
