package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/answer"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/assemble"
)

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pkg := assemble.Assemble(sess.Documents(), assemble.Config{
		GroupSize: s.cfg.ChunkPageGroup,
		MaxChunks: s.cfg.MaxContextChunks,
	})

	ans, err := s.answers.Ask(r.Context(), &pkg, req.Question, sess.History())
	if err != nil {
		switch {
		case errors.Is(err, answer.ErrEmptyQuestion):
			jsonError(w, "Please ask a question", http.StatusBadRequest)
		case errors.Is(err, answer.ErrEmptyContext):
			jsonError(w, "Please upload and process documents first", http.StatusBadRequest)
		default:
			var ce *answer.CompletionError
			if errors.As(err, &ce) {
				jsonError(w, ce.Error(), http.StatusBadGateway)
				return
			}
			s.log.Error("ask failed", "error", err)
			jsonError(w, "completion failed", http.StatusBadGateway)
		}
		return
	}

	sess.AppendTurn(answer.RoleUser, req.Question)
	sess.AppendTurn(answer.RoleAssistant, ans.Text)

	citations := ans.Citations
	if citations == nil {
		citations = []answer.Citation{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"answer":            ans.Text,
		"chars":             ans.Chars,
		"citations":         citations,
		"cited":             ans.Cited,
		"not_found":         ans.NotFound,
		"context_truncated": ans.ContextTruncated,
		"elapsed_ms":        ans.ElapsedMs,
		"tokens":            ans.Tokens,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	turns := sess.History()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"turns": turns,
		"count": len(turns),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.ClearHistory()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "history cleared"})
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	switch format {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transcript.txt"`)
		w.Write([]byte(renderTextTranscript(sess)))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transcript.html"`)
		w.Write([]byte(renderHTMLTranscript(sess)))
	default:
		jsonError(w, "format must be text or html", http.StatusBadRequest)
	}
}
