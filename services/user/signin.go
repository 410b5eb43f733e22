package user

import (
	"context"
	"errors"
	"fmt"

	"experiencebylocals/models"
	"experiencebylocals/services/backend"
	"experiencebylocals/services/chat"
	"experiencebylocals/services/session"

	"go.uber.org/zap"
)

// SignIn authenticates with the backend, loads the full user and syncs chat.
func (s *DefaultUserService) SignIn(ctx context.Context, sess *session.Session, username, password string) (*AuthResult, error) {
	err := sess.Backend().Authenticate(ctx, username, password)
	if errors.Is(err, backend.ErrUnauthorized) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("SignIn: %w", err)
	}
	return s.establish(ctx, sess)
}

// establish finishes any sign-in once the backend holds a new session.
func (s *DefaultUserService) establish(ctx context.Context, sess *session.Session) (*AuthResult, error) {
	u, err := sess.Backend().CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load signed-in user: %w", err)
	}
	if u == nil {
		return nil, ErrNoSession
	}

	fresh := s.Sessions.Rebind(ctx, sess, u)
	if sess.Key != "" && sess.Key != fresh.Key {
		s.forget(ctx, sess.Key)
	}

	result := &AuthResult{User: u, Session: fresh}
	s.syncChat(ctx, fresh, u, result)
	return result, nil
}

func (s *DefaultUserService) syncChat(ctx context.Context, sess *session.Session, u *models.User, result *AuthResult) {
	if s.Chat == nil {
		return
	}
	rec, err := s.Chat.Sync(ctx, sess.Key, u.Email, u.DisplayName())
	switch {
	case err == nil:
		result.Chat = &rec
	case errors.Is(err, chat.ErrNotConfigured):
		s.logger().Debug("chat sync skipped", zap.Error(err))
	default:
		s.logger().Warn("chat sync failed", zap.String("username", u.Username), zap.Error(err))
		result.ChatError = "messaging is temporarily unavailable"
	}
}

// SignOut ends the backend session and the chat login. It does not fail when
// the backend session was already gone.
func (s *DefaultUserService) SignOut(ctx context.Context, sess *session.Session) error {
	err := sess.Backend().Logout(ctx)
	s.forget(ctx, sess.Key)
	if err != nil && !errors.Is(err, backend.ErrUnauthorized) {
		return fmt.Errorf("SignOut: %w", err)
	}
	return nil
}

// forget drops everything cached for an app session key.
func (s *DefaultUserService) forget(ctx context.Context, key string) {
	if key == "" {
		return
	}
	s.Sessions.Invalidate(ctx, key)
	if s.Chat != nil {
		if err := s.Chat.Reset(ctx, key); err != nil {
			s.logger().Warn("failed to reset chat session", zap.Error(err))
		}
	}
}
