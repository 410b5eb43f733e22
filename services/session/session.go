// Package session bootstraps the caller's identity once per request.
//
// A Session is created by middleware for every request and resolved before
// any handler runs. Handlers read it with From and never see a
// half-resolved guest.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"experiencebylocals/models"
	"experiencebylocals/services/backend"
)

// Session is one request's view of the caller.
type Session struct {
	// Key identifies the backend session. It is empty for callers without a
	// session cookie.
	Key string

	client   *backend.Client
	resolver *Resolver

	once sync.Once
	user *models.User
	err  error
}

// KeyFor derives the cache key of a backend session id.
func KeyFor(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}

// Backend is the backend client bound to the caller's cookies.
func (s *Session) Backend() *backend.Client {
	return s.client
}

// User resolves the caller on first use. A guest is a nil user. A non-nil
// error means the backend could not be asked; the caller is then a guest too.
func (s *Session) User(ctx context.Context) (*models.User, error) {
	s.once.Do(func() {
		s.user, s.err = s.resolver.resolve(ctx, s)
	})
	return s.user, s.err
}

// CurrentUser returns the already resolved user without blocking.
func (s *Session) CurrentUser() *models.User {
	user, _ := s.User(context.Background())
	return user
}

// SignedIn reports whether the caller has a user.
func (s *Session) SignedIn() bool {
	return s.CurrentUser() != nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the Session stored in ctx, or nil.
func From(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
