package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/rentshed/internal/db"
)

const (
	sessionExpiry = 30 * 24 * time.Hour
	cookieName    = "shed_session"
)

// ErrNoSession is returned by Validate when the request carries no usable
// member session.
var ErrNoSession = errors.New("no member session")

// SessionStore keeps signed-in members' browser sessions. Board browsing
// does not use it; anonymous visitors only get a board cookie.
type SessionStore struct {
	db     *db.DB
	secure bool
	now    func() time.Time
}

// NewSessionStore creates a session store. secure marks cookies HTTPS-only.
func NewSessionStore(d *db.DB, secure bool) *SessionStore {
	return &SessionStore{db: d, secure: secure, now: time.Now}
}

func (s *SessionStore) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Create signs email in: it stores a new session and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("session needs a member email")
	}

	id, err := generateSessionID()
	if err != nil {
		return fmt.Errorf("generating session ID: %w", err)
	}

	expiresAt := s.now().UTC().Add(sessionExpiry)
	if _, err := s.db.Exec(
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		id, email, expiresAt,
	); err != nil {
		return fmt.Errorf("storing session for %s: %w", email, err)
	}

	http.SetCookie(w, s.cookie(id, expiresAt, 0))
	slog.Info("session created", "email", email, "expires", expiresAt.Format(time.RFC3339))
	return nil
}

// Validate returns the member email behind the request's session cookie.
// Missing, unknown and expired sessions all report ErrNoSession; expired
// rows are removed.
func (s *SessionStore) Validate(r *http.Request) (string, error) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}

	var email string
	var expiresAt time.Time
	err = s.db.QueryRow(
		"SELECT email, expires_at FROM sessions WHERE id = ?", c.Value,
	).Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("querying session: %w", err)
	}

	if s.now().After(expiresAt) {
		if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", c.Value); err != nil {
			return "", fmt.Errorf("deleting expired session: %w", err)
		}
		slog.Debug("session expired", "email", email)
		return "", ErrNoSession
	}

	return email, nil
}

// Destroy signs the request's member out and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	var email string
	if err := s.db.QueryRow("SELECT email FROM sessions WHERE id = ?", c.Value).Scan(&email); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("looking up session: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", c.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, s.cookie("", time.Time{}, -1))
	if email != "" {
		slog.Info("session destroyed", "email", email)
	}
	return nil
}

// Revoke signs email out of every browser and reports how many sessions
// were ended.
func (s *SessionStore) Revoke(email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	result, err := s.db.Exec("DELETE FROM sessions WHERE email = ?", email)
	if err != nil {
		return 0, fmt.Errorf("revoking sessions for %s: %w", email, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	if n > 0 {
		slog.Info("sessions revoked", "email", email, "count", n)
	}
	return n, nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup() error {
	result, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", s.now().UTC())
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		slog.Debug("expired sessions removed", "count", n)
	}
	return nil
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
