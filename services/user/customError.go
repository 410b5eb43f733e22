package user

import "errors"

var (
	// ErrInvalidCredentials means the backend refused the username or password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotRegistered means an OAuth sign-in used an email without an account.
	ErrNotRegistered = errors.New("account not registered, please sign up first")
	// ErrNoSession means the backend accepted the credentials but no user came back.
	ErrNoSession = errors.New("sign in did not establish a session")
	// ErrChatDisabled means messaging is unavailable on this deployment.
	ErrChatDisabled = errors.New("messaging is not available")
)
