// Package csrf issues and verifies single-use anti-forgery tokens bound to a
// session scope.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTTL = 30 * time.Minute

	tokenBytes = 32
)

var (
	ErrTokenMismatch = errors.New("anti-forgery token mismatch")
	ErrTokenExpired  = errors.New("anti-forgery token expired")

	// ErrNoToken is returned by a Store when nothing is recorded for a scope.
	ErrNoToken = errors.New("no token for scope")
)

type Token struct {
	Value      string
	Scope      string
	IssuedAt   time.Time
	ConsumedAt *time.Time
}

// Store keeps at most one token per scope.
type Store interface {
	Save(ctx context.Context, t Token, ttl time.Duration) error
	Load(ctx context.Context, scope string) (Token, error)
	// Consume marks the token consumed only if value is still the current,
	// unconsumed token for scope. It reports whether it did.
	Consume(ctx context.Context, scope, value string, at time.Time) (bool, error)
	Delete(ctx context.Context, scope string) error
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

func (m *Manager) Issue(ctx context.Context, scope string) (string, error) {
	if scope == "" {
		return "", errors.New("csrf: empty scope")
	}
	value, err := newValue()
	if err != nil {
		return "", err
	}
	t := Token{Value: value, Scope: scope, IssuedAt: m.now()}
	if err := m.store.Save(ctx, t, m.ttl); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}
	return value, nil
}

// Verify consumes the token for scope if presented matches it.
func (m *Manager) Verify(ctx context.Context, scope, presented string) error {
	if scope == "" || presented == "" {
		return ErrTokenMismatch
	}

	t, err := m.store.Load(ctx, scope)
	if errors.Is(err, ErrNoToken) {
		return ErrTokenExpired
	}
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(t.Value), []byte(presented)) != 1 {
		return ErrTokenMismatch
	}
	now := m.now()
	if t.ConsumedAt != nil || now.Sub(t.IssuedAt) > m.ttl {
		return ErrTokenExpired
	}

	ok, err := m.store.Consume(ctx, scope, presented, now)
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if !ok {
		return ErrTokenExpired
	}
	return nil
}

func (m *Manager) Rotate(ctx context.Context, scope string) (string, error) {
	if err := m.store.Delete(ctx, scope); err != nil {
		return "", fmt.Errorf("discard token: %w", err)
	}
	return m.Issue(ctx, scope)
}

func newValue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
