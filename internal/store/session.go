package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/score-librarian/internal/api"
)

// LoadTokens returns the stored tokens, or empty tokens when logged out
func (s *Store) LoadTokens() (api.Tokens, error) {
	var t api.Tokens
	err := s.db.QueryRow(`
		SELECT username, access_token, refresh_token FROM session WHERE id = 1
	`).Scan(&t.Username, &t.Access, &t.Refresh)

	if err == sql.ErrNoRows {
		return api.Tokens{}, nil
	}
	if err != nil {
		return api.Tokens{}, fmt.Errorf("failed to load session: %w", err)
	}
	return t, nil
}

// SaveTokens replaces the stored tokens
func (s *Store) SaveTokens(t api.Tokens) error {
	_, err := s.db.Exec(`
		INSERT INTO session (id, username, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`, t.Username, t.Access, t.Refresh, time.Now())

	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearTokens removes the stored session
func (s *Store) ClearTokens() error {
	if _, err := s.db.Exec("DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SessionUpdatedAt returns when tokens were last written
func (s *Store) SessionUpdatedAt() (time.Time, bool, error) {
	var at time.Time
	err := s.db.QueryRow("SELECT updated_at FROM session WHERE id = 1").Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	return at, true, nil
}

var _ api.TokenStore = (*Store)(nil)
