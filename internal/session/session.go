// Package session holds the authenticated identity for this kiosk. It is the
// only writer of the token: login saves it, logout clears it, and the API
// transport reads it on every request through the TokenSource contract.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/admitq/queue-kiosk/internal/store"
)

const (
	keySession  = "session"
	keyLanguage = "language"
)

// User is the persisted user record attached to the session.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Desk     string `json:"desk,omitempty"`
	Status   string `json:"status,omitempty"`
}

type persisted struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Manager is the explicitly-scoped session store. Construct once at startup
// and inject it; there is no ambient global.
type Manager struct {
	store *store.Store
	log   zerolog.Logger

	mu       sync.RWMutex
	token    string
	user     User
	language string
}

// New loads any persisted session and language preference from the store.
func New(st *store.Store, defaultLanguage string, log zerolog.Logger) *Manager {
	m := &Manager{store: st, log: log, language: defaultLanguage}

	var p persisted
	if err := st.GetJSON(keySession, &p); err == nil {
		m.token = p.Token
		m.user = p.User
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to restore session")
	}

	var lang string
	if err := st.GetJSON(keyLanguage, &lang); err == nil && lang != "" {
		m.language = lang
	}

	return m
}

// Token returns the current bearer token, empty when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the current user record.
func (m *Manager) User() User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// LoggedIn reports whether a token is present.
func (m *Manager) LoggedIn() bool {
	return m.Token() != ""
}

// SaveLogin persists the token and user record returned by a login call.
func (m *Manager) SaveLogin(token string, user User) error {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()

	if err := m.store.PutJSON(keySession, persisted{Token: token, User: user}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout clears the session both in memory and in the store.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.token = ""
	m.user = User{}
	m.mu.Unlock()

	if err := m.store.Delete(keySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Language returns the persisted language preference.
func (m *Manager) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.language
}

// SetLanguage validates and persists the language preference.
func (m *Manager) SetLanguage(tag string) error {
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("invalid language %q: %w", tag, err)
	}

	m.mu.Lock()
	m.language = tag
	m.mu.Unlock()

	if err := m.store.PutJSON(keyLanguage, tag); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	return nil
}
