package session

import (
	"context"
	"time"

	"experiencebylocals/models"
	"experiencebylocals/services/backend"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UserCache holds signed-in users by session key.
type UserCache interface {
	Get(ctx context.Context, key string) (*models.User, bool, error)
	Set(ctx context.Context, key string, user *models.User, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Resolver creates Sessions and answers "who am I" for them.
type Resolver struct {
	cache  UserCache
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewResolver creates a Resolver. A nil cache disables caching.
func NewResolver(cache UserCache, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cache: cache, ttl: ttl, logger: logger}
}

// New creates an unresolved Session for a request-bound backend client.
func (r *Resolver) New(client *backend.Client) *Session {
	return &Session{
		Key:      KeyFor(client.SessionID()),
		client:   client,
		resolver: r,
	}
}

// Rebind returns a fresh Session over the same client, keyed by the session
// the client holds now. Use it after sign-in or sign-out changed the cookie.
// A non-nil user is taken as already resolved and cached.
func (r *Resolver) Rebind(ctx context.Context, s *Session, user *models.User) *Session {
	fresh := r.New(s.client)
	if user != nil {
		fresh.once.Do(func() { fresh.user = user })
		r.Remember(ctx, fresh, user)
	}
	return fresh
}

// Remember caches user under the session's key.
func (r *Resolver) Remember(ctx context.Context, s *Session, user *models.User) {
	if r.cache == nil || s.Key == "" || user == nil {
		return
	}
	if err := r.cache.Set(ctx, s.Key, user, r.ttl); err != nil {
		r.logger.Warn("failed to cache session user", zap.Error(err))
	}
}

// Invalidate drops the cached user of a session key.
func (r *Resolver) Invalidate(ctx context.Context, key string) {
	if r.cache == nil || key == "" {
		return
	}
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("failed to invalidate session user", zap.Error(err))
	}
}

func (r *Resolver) resolve(ctx context.Context, s *Session) (*models.User, error) {
	if s.Key == "" {
		return nil, nil
	}
	if r.cache != nil {
		user, ok, err := r.cache.Get(ctx, s.Key)
		if err != nil {
			r.logger.Warn("session cache read failed", zap.Error(err))
		} else if ok {
			return user, nil
		}
	}

	// The shared lookup outlives any one caller; the backend client's timeout
	// bounds it. Each caller still stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(s.Key, func() (interface{}, error) {
		return s.client.CurrentUser(shared)
	})
	var (
		v   interface{}
		err error
	)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		v, err = res.Val, res.Err
	}
	if err != nil {
		r.logger.Error("failed to bootstrap session", zap.Error(err))
		return nil, err
	}
	user, _ := v.(*models.User)
	if user == nil {
		r.logger.Debug("session is a guest")
		return nil, nil
	}
	r.Remember(ctx, s, user)
	return user, nil
}
