package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"experiencebylocals/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var syncs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_sync_total",
	Help: "Chat session reconciliations by outcome.",
}, []string{"outcome"})

// Reconciler moves each app session between LoggedOut, LoggingIn and
// LoggedIn(uid) on the chat platform.
type Reconciler struct {
	platform Platform
	store    StateStore
	logger   *zap.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewReconciler creates a Reconciler over platform and store.
func NewReconciler(platform Platform, store StateStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		platform: platform,
		store:    store,
		logger:   logger,
		inflight: make(map[string]chan struct{}),
	}
}

// acquire holds the LoggingIn guard of key. A concurrent holder is waited for.
func (r *Reconciler) acquire(ctx context.Context, key string) (func(), error) {
	for {
		r.mu.Lock()
		ch, busy := r.inflight[key]
		if !busy {
			done := make(chan struct{})
			r.inflight[key] = done
			r.mu.Unlock()
			return func() {
				r.mu.Lock()
				delete(r.inflight, key)
				r.mu.Unlock()
				close(done)
			}, nil
		}
		r.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Current returns the stored state of an app session.
func (r *Reconciler) Current(ctx context.Context, key string) (Record, error) {
	return r.store.Get(ctx, key)
}

// Sync makes the chat login of session key match the app user with email.
// It is a no-op when the session is already logged in as that user.
func (r *Reconciler) Sync(ctx context.Context, key, email, name string) (Record, error) {
	uid := UIDFromEmail(email)
	if uid == "" {
		return Record{State: LoggedOut}, ErrNoEmail
	}
	if err := r.platform.Init(ctx); err != nil {
		return Record{State: LoggedOut}, err
	}

	release, err := r.acquire(ctx, key)
	if err != nil {
		return Record{State: LoggedOut}, err
	}
	defer release()

	rec, err := r.store.Get(ctx, key)
	if err != nil {
		return Record{State: LoggedOut}, err
	}
	if rec.LoggedInAs(uid) {
		syncs.WithLabelValues("noop").Inc()
		return rec, nil
	}
	if rec.State == LoggedIn && rec.AuthToken != "" {
		r.logout(ctx, rec)
	}

	if err := r.store.Set(ctx, key, Record{State: LoggingIn, UID: uid}); err != nil {
		return Record{State: LoggedOut}, err
	}

	token, err := r.platform.Login(ctx, uid)
	if errors.Is(err, ErrUIDNotFound) {
		r.logger.Info("creating chat user", zap.String("uid", uid))
		if err = r.platform.CreateUser(ctx, models.ChatUser{UID: uid, Name: displayName(name, uid)}); err == nil {
			token, err = r.platform.Login(ctx, uid)
		}
	}
	if err != nil {
		syncs.WithLabelValues("failed").Inc()
		if serr := r.store.Set(ctx, key, Record{State: LoggedOut}); serr != nil {
			r.logger.Warn("failed to reset chat state", zap.Error(serr))
		}
		return Record{State: LoggedOut}, fmt.Errorf("chat: login as %s failed: %w", uid, err)
	}

	rec = Record{State: LoggedIn, UID: uid, AuthToken: token}
	if err := r.store.Set(ctx, key, rec); err != nil {
		return Record{State: LoggedOut}, err
	}
	syncs.WithLabelValues("login").Inc()
	r.logger.Debug("chat session logged in", zap.String("uid", uid))
	return rec, nil
}

// Reset logs session key out of chat. Platform failures are logged only.
func (r *Reconciler) Reset(ctx context.Context, key string) error {
	release, err := r.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	rec, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if rec.State == LoggedIn && rec.AuthToken != "" {
		r.logout(ctx, rec)
	}
	return r.store.Delete(ctx, key)
}

func (r *Reconciler) logout(ctx context.Context, rec Record) {
	if err := r.platform.Logout(ctx, rec.UID, rec.AuthToken); err != nil {
		r.logger.Warn("chat logout failed", zap.String("uid", rec.UID), zap.Error(err))
	}
}

func displayName(name, uid string) string {
	if name != "" {
		return name
	}
	return uid
}
