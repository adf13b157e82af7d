// Package auth provides member accounts, API keys and cookie sessions.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/rentshed/internal/db"
)

var (
	// ErrMemberNotFound is returned when a member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMemberExists is returned when adding an email twice.
	ErrMemberExists = errors.New("member already exists")
)

// Member is a neighbor allowed to register and rent items.
type Member struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberStore manages members.
type MemberStore struct {
	db         *db.DB
	adminEmail string
}

// NewMemberStore creates a member store. The admin email is always
// authorized, whether or not it has a row.
func NewMemberStore(d *db.DB, adminEmail string) *MemberStore {
	return &MemberStore{db: d, adminEmail: strings.ToLower(adminEmail)}
}

// IsAuthorized checks if an email belongs to a member or the admin.
func (s *MemberStore) IsAuthorized(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if email == s.adminEmail {
		return true
	}

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM members WHERE LOWER(email) = ?", email).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// IsAdmin checks if an email is the admin.
func (s *MemberStore) IsAdmin(email string) bool {
	return s.adminEmail != "" && strings.ToLower(email) == s.adminEmail
}

// Add creates a new member.
func (s *MemberStore) Add(email, name, location string) (*Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if s.exists(email) {
		return nil, fmt.Errorf("%w: %s", ErrMemberExists, email)
	}

	id := uuid.NewString()
	if _, err := s.db.Exec(
		"INSERT INTO members (id, email, name, location, created_at) VALUES (?, ?, ?, ?, ?)",
		id, email, name, location, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("adding member: %w", err)
	}

	slog.Info("member added", "email", email)
	return s.GetByEmail(email)
}

func (s *MemberStore) exists(email string) bool {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM members WHERE email = ?", email).Scan(&count); err != nil {
		return false
	}
	return count > 0
}

const memberColumns = "id, email, name, phone, location, created_at"

// List returns all members ordered by email.
func (s *MemberStore) List() ([]*Member, error) {
	rows, err := s.db.Query("SELECT " + memberColumns + " FROM members ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Location, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, &m)
	}

	return members, rows.Err()
}

// GetByEmail returns a member by email.
func (s *MemberStore) GetByEmail(email string) (*Member, error) {
	var m Member
	err := s.db.QueryRow(
		"SELECT "+memberColumns+" FROM members WHERE email = ?", strings.ToLower(email),
	).Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Location, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying member: %w", err)
	}
	return &m, nil
}

// Delete removes a member by email.
func (s *MemberStore) Delete(email string) error {
	result, err := s.db.Exec("DELETE FROM members WHERE email = ?", strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrMemberNotFound
	}

	return nil
}
