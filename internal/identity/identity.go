// Package identity exposes the caller resolved by the session layer.
package identity

import (
	"context"
	"errors"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Identity struct {
	UserID  string
	Role    string
	Session string
}

func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// VoterID returns nil for anonymous callers.
func (i Identity) VoterID() *string {
	if i.Anonymous() {
		return nil
	}
	id := i.UserID
	return &id
}

type Gateway interface {
	CurrentIdentity(ctx context.Context) Identity
	RequireIdentity(ctx context.Context) (Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// ContextGateway reads the identity placed on the context by the HTTP
// session middleware.
type ContextGateway struct{}

func (ContextGateway) CurrentIdentity(ctx context.Context) Identity {
	id, _ := FromContext(ctx)
	return id
}

func (g ContextGateway) RequireIdentity(ctx context.Context) (Identity, error) {
	id := g.CurrentIdentity(ctx)
	if id.Anonymous() {
		return Identity{}, ErrNotAuthenticated
	}
	return id, nil
}
