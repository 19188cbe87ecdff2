package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// KV is a string key-value store over the kv table.
type KV struct {
	db *sql.DB
}

// NewKV returns a KV backed by db.
func NewKV(db *sql.DB) *KV {
	return &KV{db: db}
}

// Get returns the value for key and whether it exists.
func (s *KV) Get(key string) (string, bool, error) {
	var v sql.NullString
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return v.String, true, nil
}

// Set upserts key.
func (s *KV) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *KV) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}
