package storage

import (
	"database/sql"
	"errors"
)

// credentialKey is the fixed key under which the bearer token lives.
// Only the token is persisted; the user record is always re-fetched.
const credentialKey = "auth_token"

// Store persists client credentials in the local sqlite database.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Token returns the persisted bearer token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	var token string
	err := s.db.QueryRow(
		"SELECT value FROM credentials WHERE key = ?", credentialKey,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SaveToken stores the bearer token, replacing any previous one.
func (s *Store) SaveToken(token string) error {
	_, err := s.db.Exec(
		`INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		credentialKey, token,
	)
	return err
}

// DeleteToken removes the persisted token. Deleting an absent token is
// not an error.
func (s *Store) DeleteToken() error {
	_, err := s.db.Exec("DELETE FROM credentials WHERE key = ?", credentialKey)
	return err
}
