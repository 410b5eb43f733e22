package user

import (
	"context"
	"fmt"

	"experiencebylocals/models"
	"experiencebylocals/services/session"
)

// UpdateProfile saves the changed fields and returns the refreshed user.
func (s *DefaultUserService) UpdateProfile(ctx context.Context, sess *session.Session, update models.ProfileUpdate) (*models.User, error) {
	if err := sess.Backend().UpdateUser(ctx, update); err != nil {
		return nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	s.Sessions.Invalidate(ctx, sess.Key)

	u, err := sess.Backend().CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("UpdateProfile: failed to reload user: %w", err)
	}
	if u == nil {
		return nil, ErrNoSession
	}
	s.Sessions.Remember(ctx, sess, u)
	return u, nil
}
