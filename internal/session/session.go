// Package session holds the authenticated login state: the bearer
// token and the cached account record behind it. The session is an
// explicit object owned by the command layer and handed to whoever
// needs it; nothing here is process-global.
package session

import (
	"sync"
	"time"

	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/storage"
	"github.com/user/leadfindr/internal/util"
)

// Session is the live login state. It implements the API client's
// TokenSource, so a 401 anywhere invalidates it exactly once.
type Session struct {
	mu      sync.RWMutex
	token   string
	account *model.UserAccount

	store *storage.SessionStorage
}

// New builds a session backed by the given storage. A nil store keeps
// the session memory-only.
func New(store *storage.SessionStorage) *Session {
	return &Session{store: store}
}

// Restore loads a previously saved login. It reports whether one was
// found; a missing saved session is not an error.
func (s *Session) Restore() (bool, error) {
	if s.store == nil {
		return false, nil
	}
	saved, err := s.store.Load()
	if err != nil {
		return false, err
	}
	if saved == nil || saved.Token == "" {
		return false, nil
	}

	s.mu.Lock()
	s.token = saved.Token
	s.account = saved.Account
	s.mu.Unlock()
	return true, nil
}

// Establish installs a fresh login and persists it.
func (s *Session) Establish(token string, account *model.UserAccount) error {
	s.mu.Lock()
	s.token = token
	s.account = account
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	saved := storage.SavedSession{Token: token, SavedAt: time.Now()}
	if account != nil {
		saved.Email = account.Email
		saved.Account = account
	}
	return s.store.Save(saved)
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Invalidate drops the login. The API client calls this on any 401, so
// an expired token clears the saved session instead of failing every
// subsequent command the same way.
func (s *Session) Invalidate() {
	s.mu.Lock()
	wasAuthed := s.token != ""
	s.token = ""
	s.account = nil
	s.mu.Unlock()

	if !wasAuthed {
		return
	}
	util.Info("session: login invalidated")
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			util.Warn("session: failed to clear saved login: %v", err)
		}
	}
}

// Authenticated reports whether a token is present. It says nothing
// about the token still being accepted server-side.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Account returns the cached account record, nil when unknown.
func (s *Session) Account() *model.UserAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// SetAccount refreshes the cached account record and persists it
// alongside the token.
func (s *Session) SetAccount(account *model.UserAccount) error {
	s.mu.Lock()
	s.account = account
	token := s.token
	s.mu.Unlock()

	if s.store == nil || token == "" {
		return nil
	}
	saved := storage.SavedSession{Token: token, SavedAt: time.Now()}
	if account != nil {
		saved.Email = account.Email
		saved.Account = account
	}
	return s.store.Save(saved)
}

// Email returns the logged-in address, empty when unknown.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return ""
	}
	return s.account.Email
}

// IsAdmin reports whether the cached account carries the admin role.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account != nil && s.account.Role == "admin"
}
