// Package auth resolves operator sessions. Authentication itself (password
// checks, token issuance transport) lives outside this service; here a bearer
// token maps to an operator session held in Redis, and session changes notify
// registered listeners so process state tied to the operator can be dropped.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// Operator is a back-office user.
type Operator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionStore persists operator sessions keyed by token.
type SessionStore interface {
	Get(ctx context.Context, token string) (*Operator, error)
	Set(ctx context.Context, token string, op *Operator, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// Manager resolves the current operator and fires session-change callbacks on
// login and logout.
type Manager struct {
	store  SessionStore
	ttl    time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	listeners []func()
}

// NewManager creates a session manager.
func NewManager(store SessionStore, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// OnSessionChange registers a callback fired after every login and logout.
func (m *Manager) OnSessionChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// CurrentOperator resolves a bearer token to its operator. An unknown or
// expired token maps to the unauthorized branch of the taxonomy.
func (m *Manager) CurrentOperator(ctx context.Context, token string) (*Operator, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("missing session token")
	}
	return m.store.Get(ctx, token)
}

// Login stores a new session and returns its token.
func (m *Manager) Login(ctx context.Context, op *Operator) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	if err := m.store.Set(ctx, token, op, m.ttl); err != nil {
		return "", err
	}

	m.notify()
	m.logger.InfoContext(ctx, "operator logged in", slog.String("operator_id", op.ID))

	return token, nil
}

// Logout removes the session. Listeners run even when the token was already
// gone, so stale process state never outlives a logout attempt.
func (m *Manager) Logout(ctx context.Context, token string) error {
	err := m.store.Delete(ctx, token)
	m.notify()
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "operator logged out")
	return nil
}

func (m *Manager) notify() {
	m.mu.Lock()
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
