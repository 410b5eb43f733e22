package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the chat platform credentials are missing.
	ErrNotConfigured = errors.New("chat: platform not configured")
	// ErrUIDNotFound means the chat user does not exist yet.
	ErrUIDNotFound = errors.New("chat: uid not found")
	// ErrUIDExists means the chat user already exists.
	ErrUIDExists = errors.New("chat: uid already exists")
	// ErrNoEmail means the app user has no email to derive a uid from.
	ErrNoEmail = errors.New("chat: user has no email")
)

// PlatformError is an error answer from the chat platform.
type PlatformError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *PlatformError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("chat: %s: %s (%d): %s", e.Op, e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("chat: %s: status %d", e.Op, e.Status)
}

// Is matches the platform's error codes against the sentinels.
func (e *PlatformError) Is(target error) bool {
	switch target {
	case ErrUIDNotFound:
		return e.Code == "ERR_UID_NOT_FOUND"
	case ErrUIDExists:
		return e.Code == "ERR_UID_ALREADY_EXISTS"
	}
	return false
}
