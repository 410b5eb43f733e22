package user

import (
	"context"
	"fmt"

	"experiencebylocals/services/oauth"
	"experiencebylocals/services/session"
)

// OAuthSignIn verifies a Google or Apple ID token and exchanges it for a
// backend session. A sign-in intent requires the email to be registered.
func (s *DefaultUserService) OAuthSignIn(ctx context.Context, sess *session.Session, req OAuthRequest) (*AuthResult, error) {
	if s.OAuth != nil {
		id, err := s.OAuth.Verify(ctx, req.Provider, req.Token)
		if err != nil {
			return nil, err
		}
		if req.Intent != "sign_up" {
			exists, err := sess.Backend().UserExistsByEmail(ctx, id.Email)
			if err != nil {
				return nil, fmt.Errorf("OAuthSignIn: failed to check email: %w", err)
			}
			if !exists {
				return nil, ErrNotRegistered
			}
		}
	} else if req.Provider != oauth.Google && req.Provider != oauth.Apple {
		return nil, oauth.ErrUnsupportedProvider
	}

	if err := sess.Backend().OAuthLogin(ctx, req.Provider, req.Token); err != nil {
		return nil, fmt.Errorf("OAuthSignIn: %w", err)
	}
	return s.establish(ctx, sess)
}
