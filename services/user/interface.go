package user

import (
	"context"

	"experiencebylocals/models"
	"experiencebylocals/services/chat"
	"experiencebylocals/services/oauth"
	"experiencebylocals/services/session"

	"go.uber.org/zap"
)

type UserService interface {
	// Authentication
	SignIn(ctx context.Context, sess *session.Session, username, password string) (*AuthResult, error)
	SignUp(ctx context.Context, sess *session.Session, req models.SignUpRequest) (*AuthResult, error)
	OAuthSignIn(ctx context.Context, sess *session.Session, req OAuthRequest) (*AuthResult, error)
	SignOut(ctx context.Context, sess *session.Session) error

	// Profile
	Account(ctx context.Context, sess *session.Session) (*Account, error)
	UpdateProfile(ctx context.Context, sess *session.Session, update models.ProfileUpdate) (*models.User, error)
	GetHost(ctx context.Context, sess *session.Session, id int) (*models.User, error)

	// Messaging
	SyncChat(ctx context.Context, sess *session.Session) (chat.Record, error)
	Contacts(ctx context.Context, sess *session.Session) ([]models.ChatUser, error)
	StartDM(ctx context.Context, sess *session.Session, userID int) (string, error)
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Sessions *session.Resolver
	Chat     *chat.Reconciler
	Platform chat.Platform
	OAuth    *oauth.Verifier
	Logger   *zap.Logger
}

// AuthResult is a successful sign-in. Chat problems never fail a sign-in;
// they are reported in ChatError.
type AuthResult struct {
	User      *models.User     `json:"user"`
	Session   *session.Session `json:"-"`
	Chat      *chat.Record     `json:"chat,omitempty"`
	ChatError string           `json:"chat_error,omitempty"`
}

// OAuthRequest is an ID token from a sign-in button.
type OAuthRequest struct {
	Provider string `json:"provider" binding:"required,oneof=google apple"`
	Token    string `json:"token" binding:"required"`
	// Intent "sign_up" lets the backend create the account; "sign_in" requires
	// the email to be registered already.
	Intent string `json:"intent"`
}

// Account is everything the account page shows.
type Account struct {
	User         *models.User         `json:"user"`
	Bookings     []models.Booking     `json:"bookings"`
	HostedEvents []models.HostedEvent `json:"hosted_events"`
}

func (s *DefaultUserService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
