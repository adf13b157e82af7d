// Package settings stores application settings such as the map API key.
package settings

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/rentshed/internal/db"
)

// MapAPIKeyName is the setting holding the map service API key.
const MapAPIKeyName = "map_api_key"

// Store is a key/value settings table.
type Store struct {
	db *db.DB
}

// NewStore creates a settings store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Get returns a setting, or "" when it has never been set.
func (s *Store) Get(name string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", name, err)
	}
	return value, nil
}

// Set creates or replaces a setting.
func (s *Store) Set(name, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", name, err)
	}
	return nil
}

// Delete removes a setting. Deleting a missing setting is not an error.
func (s *Store) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM settings WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting setting %s: %w", name, err)
	}
	return nil
}

// MapAPIKey returns the saved map API key.
func (s *Store) MapAPIKey() (string, error) {
	return s.Get(MapAPIKeyName)
}

// SetMapAPIKey saves the map API key.
func (s *Store) SetMapAPIKey(key string) error {
	return s.Set(MapAPIKeyName, key)
}
