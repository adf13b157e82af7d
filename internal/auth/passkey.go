package auth

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/rentshed/internal/db"
)

// MemberPasskeyUser implements webauthn.User for one member.
type MemberPasskeyUser struct {
	email       string
	credentials []webauthn.Credential
}

// NewMemberPasskeyUser creates a passkey user for the member's email.
func NewMemberPasskeyUser(email string, credentials []webauthn.Credential) *MemberPasskeyUser {
	return &MemberPasskeyUser{email: strings.ToLower(email), credentials: credentials}
}

// UserHandle derives the stable WebAuthn user handle for an email.
func UserHandle(email string) []byte {
	h := sha256.Sum256([]byte(strings.ToLower(email)))
	return h[:]
}

// Email returns the member's email.
func (u *MemberPasskeyUser) Email() string { return u.email }

// WebAuthnID returns the user handle.
func (u *MemberPasskeyUser) WebAuthnID() []byte { return UserHandle(u.email) }

// WebAuthnName returns the email.
func (u *MemberPasskeyUser) WebAuthnName() string { return u.email }

// WebAuthnDisplayName returns the email.
func (u *MemberPasskeyUser) WebAuthnDisplayName() string { return u.email }

// WebAuthnCredentials returns the member's registered credentials.
func (u *MemberPasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// Passkey is a registered credential as shown on the member page.
type Passkey struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	Credential webauthn.Credential `json:"-"`
}

// PasskeyStore keeps members' passkey credentials.
type PasskeyStore struct {
	db *db.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(d *db.DB) *PasskeyStore {
	return &PasskeyStore{db: d}
}

func credentialID(cred *webauthn.Credential) string {
	return hex.EncodeToString(cred.ID)
}

// Save stores a newly registered credential for email.
func (s *PasskeyStore) Save(email, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	email = strings.ToLower(email)
	if _, err := s.db.Exec(
		"INSERT INTO passkey_credentials (id, email, user_handle, name, credential_json, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		credentialID(cred), email, hex.EncodeToString(UserHandle(email)), name, string(data), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	slog.Info("passkey registered", "email", email, "name", name)
	return nil
}

// List returns the credentials registered by email, oldest first.
func (s *PasskeyStore) List(email string) ([]Passkey, error) {
	rows, err := s.db.Query(
		"SELECT id, email, name, credential_json, created_at, last_used_at FROM passkey_credentials WHERE email = ? ORDER BY created_at",
		strings.ToLower(email),
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var result []Passkey
	for rows.Next() {
		var p Passkey
		var data string
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &data, &p.CreatedAt, &p.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &p.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential %s: %w", p.ID, err)
		}
		result = append(result, p)
	}

	return result, rows.Err()
}

// User loads email's credentials as a webauthn.User.
func (s *PasskeyStore) User(email string) (*MemberPasskeyUser, error) {
	stored, err := s.List(email)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, p := range stored {
		creds[i] = p.Credential
	}
	return NewMemberPasskeyUser(email, creds), nil
}

// EmailForHandle returns the email whose credentials carry userHandle, or
// "" when no credential matches.
func (s *PasskeyStore) EmailForHandle(userHandle []byte) (string, error) {
	var email string
	err := s.db.QueryRow(
		"SELECT email FROM passkey_credentials WHERE user_handle = ? LIMIT 1",
		hex.EncodeToString(userHandle),
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up user handle: %w", err)
	}
	return email, nil
}

// MarkUsed stores the credential state returned by a login, which carries
// the authenticator's new sign count, and records when it was used.
func (s *PasskeyStore) MarkUsed(cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}
	if _, err := s.db.Exec(
		"UPDATE passkey_credentials SET credential_json = ?, last_used_at = ? WHERE id = ?",
		string(data), time.Now().UTC(), credentialID(cred),
	); err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	return nil
}

// Delete removes a credential owned by email.
func (s *PasskeyStore) Delete(id, email string) error {
	result, err := s.db.Exec(
		"DELETE FROM passkey_credentials WHERE id = ? AND email = ?",
		id, strings.ToLower(email),
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("passkey not found")
	}

	return nil
}
