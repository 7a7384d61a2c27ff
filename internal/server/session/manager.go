// Package session tracks authenticated role and identity per client
// session. The table is shared mutable state; each entry is independent.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/server/auth"
	"github.com/dkravets/irisvault/internal/server/models"
)

// Manager issues and validates session tokens. Logout removes the
// server-side entry, which invalidates the token immediately even when its
// signature and expiry are still good.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	secret   []byte
	validity time.Duration
}

func NewManager(secret string, validity time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*models.Session),
		secret:   []byte(secret),
		validity: validity,
	}
}

// Login binds the role and optional username to a freshly issued session id
// and returns the signed token for the session cookie.
func (m *Manager) Login(role models.Role, username string) (string, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		Role:      role,
		Username:  username,
		CreatedAt: time.Now(),
	}

	token, err := auth.GenerateToken(session.ID, m.secret, m.validity)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return token, nil
}

// Require resolves the token and checks the role. No valid session yields
// ErrUnauthenticated; a live session of the wrong role yields ErrWrongRole.
// Callers redirect to the anonymous entry point on either failure.
func (m *Manager) Require(token string, role models.Role) (*models.Session, error) {
	sid, err := auth.GetSessionIDFromToken(token, m.secret)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	session, ok := m.sessions[sid]
	m.mu.RUnlock()

	if !ok {
		return nil, common.ErrUnauthenticated
	}
	if session.Role != role {
		return nil, common.ErrWrongRole
	}

	copy := *session
	return &copy, nil
}

// Logout clears all state bound to the token's session id. Unknown or
// malformed tokens are a no-op; logging out twice is not an error.
func (m *Manager) Logout(token string) {
	sid, err := auth.GetSessionIDFromToken(token, m.secret)
	if err != nil {
		return
	}

	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
}

// Drop removes a session by id, used when an account disappears while its
// owner is logged in.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
