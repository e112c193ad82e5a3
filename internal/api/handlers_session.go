package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			jsonError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		s.log.Error("authentication failed", "error", err)
		jsonError(w, "authentication unavailable", http.StatusInternalServerError)
		return
	}

	sess := s.sessions.Create(user)
	s.log.Info("login", "email", user.Email, "plan", user.Plan)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token": sess.Token,
		"user": map[string]string{
			"email": user.Email,
			"plan":  user.Plan,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.sessions.Delete(sess.Token)
	s.log.Info("logout", "email", sess.User.Email)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Account())
}
