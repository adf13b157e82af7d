package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/rentshed/internal/db"
)

const (
	apiKeyBytes  = 32 // 256-bit keys
	apiKeyPrefix = "shed_"
)

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	KeyPrefix  string     `json:"key_prefix"` // first 10 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages API keys.
type APIKeyStore struct {
	db *db.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(d *db.DB) *APIKeyStore {
	return &APIKeyStore{db: d}
}

// Create generates a new API key owned by email.
// Returns the raw key (shown once to the member) and the stored record.
func (s *APIKeyStore) Create(name, email string) (string, *APIKey, error) {
	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	key := &APIKey{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		KeyPrefix: raw[:10],
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.db.Exec(
		"INSERT INTO api_keys (id, name, email, key_prefix, key_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		key.ID, key.Name, key.Email, key.KeyPrefix, hashAPIKey(raw), key.CreatedAt,
	); err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	return raw, key, nil
}

// List returns the API keys owned by email (without the raw key).
func (s *APIKeyStore) List(email string) ([]APIKey, error) {
	rows, err := s.db.Query(
		"SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys WHERE email = ? ORDER BY created_at DESC",
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes an API key owned by email.
func (s *APIKeyStore) Delete(id, email string) error {
	result, err := s.db.Exec("DELETE FROM api_keys WHERE id = ? AND email = ?", id, email)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("key not found")
	}

	return nil
}

// Validate checks a raw API key against stored hashes and returns the
// owner's email, or "" when the key is unknown. last_used_at is updated.
func (s *APIKeyStore) Validate(rawKey string) (string, error) {
	hash := hashAPIKey(rawKey)

	var email string
	err := s.db.QueryRow("SELECT email FROM api_keys WHERE key_hash = ?", hash).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up key: %w", err)
	}

	if _, err := s.db.Exec(
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?",
		time.Now().UTC(), hash,
	); err != nil {
		return "", fmt.Errorf("validating key: %w", err)
	}

	return email, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
