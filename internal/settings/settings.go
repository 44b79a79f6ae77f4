// Package settings stores user-supplied settings in the cache database.
package settings

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hhlyyng/animesub/internal/cachestore"
	"github.com/hhlyyng/animesub/internal/config"
)

// KeyTMDBToken is the settings key for the user-supplied TMDB token.
const KeyTMDBToken = "tmdb_token"

// Store reads and writes key/value settings.
type Store struct {
	db *cachestore.DB
}

// NewStore creates a settings store on top of db.
func NewStore(db *cachestore.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key, or "" when unset.
func (s *Store) Get(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for key.
func (s *Store) Set(key, value string) error {
	err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// EnrichmentToken returns the TMDB token to use for the next pool build.
// A token stored through the settings surface wins over the configured
// API key; the empty string means no token is available.
func (s *Store) EnrichmentToken() (string, error) {
	token, err := s.Get(KeyTMDBToken)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}
	return config.TMDBAPIKey, nil
}
