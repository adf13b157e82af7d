package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/rentshed/internal/auth"
)

type loginData struct {
	Error string
}

// handleLogin renders the login form or exchanges an API key for a
// browser session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if auth.EmailFromContext(r.Context()) != "" {
			http.Redirect(w, r, "/mypage", http.StatusSeeOther)
			return
		}
		s.render(w, "login.html", loginData{})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	key := strings.TrimSpace(r.FormValue("key"))
	if key == "" {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, "login.html", loginData{Error: "API key is required"})
		return
	}

	email, err := s.apiKeys.Validate(key)
	if err != nil {
		slog.Error("validating api key", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if email == "" || !s.members.IsAuthorized(email) {
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, "login.html", loginData{Error: "Invalid API key"})
		return
	}

	if err := s.sessions.Create(w, email); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("member signed in", "email", email)
	http.Redirect(w, r, "/mypage", http.StatusSeeOther)
}

// handleLogout destroys the session and returns to the board.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.sessions.Destroy(w, r); err != nil {
		slog.Warn("destroying session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
