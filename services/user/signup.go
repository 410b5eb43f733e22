package user

import (
	"context"
	"fmt"
	"strings"

	"experiencebylocals/models"
	"experiencebylocals/services/session"
)

// SignUp creates the account, signs in as it and creates the chat user.
func (s *DefaultUserService) SignUp(ctx context.Context, sess *session.Session, req models.SignUpRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Role == "" {
		req.Role = models.RoleTraveler
	}

	if err := sess.Backend().CreateUser(ctx, req); err != nil {
		return nil, fmt.Errorf("SignUp: failed to create user: %w", err)
	}
	// The first chat sync creates the chat user on ERR_UID_NOT_FOUND.
	return s.SignIn(ctx, sess, req.Email, req.Password)
}
