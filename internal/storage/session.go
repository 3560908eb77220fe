package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/leadfindr/internal/model"
)

// SavedSession is the persisted login state.
type SavedSession struct {
	Token   string
	Email   string
	Account *model.UserAccount
	SavedAt time.Time
}

// SessionStorage persists the single saved login.
type SessionStorage struct {
	db *DB
}

// NewSessionStorage creates a new session storage handler.
func NewSessionStorage(db *DB) *SessionStorage {
	return &SessionStorage{db: db}
}

// Save stores the session, replacing any previous one.
func (s *SessionStorage) Save(sess SavedSession) error {
	var accountJSON []byte
	if sess.Account != nil {
		var err error
		accountJSON, err = json.Marshal(sess.Account)
		if err != nil {
			return fmt.Errorf("failed to encode account: %w", err)
		}
	}

	query := `INSERT INTO session (id, token, email, account_json, saved_at)
			  VALUES (1, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  token = excluded.token,
			  email = excluded.email,
			  account_json = excluded.account_json,
			  saved_at = excluded.saved_at`

	savedAt := sess.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err := s.db.Exec(query, sess.Token, sess.Email, string(accountJSON), savedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the saved session, or nil when none exists.
func (s *SessionStorage) Load() (*SavedSession, error) {
	query := `SELECT token, email, account_json, saved_at FROM session WHERE id = 1`

	var sess SavedSession
	var email, accountJSON sql.NullString

	err := s.db.QueryRow(query).Scan(&sess.Token, &email, &accountJSON, &sess.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if email.Valid {
		sess.Email = email.String
	}
	if accountJSON.Valid && accountJSON.String != "" {
		var account model.UserAccount
		if err := json.Unmarshal([]byte(accountJSON.String), &account); err == nil {
			sess.Account = &account
		}
	}

	return &sess, nil
}

// Clear removes the saved session.
func (s *SessionStorage) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
