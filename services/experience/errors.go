package experience

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"experiencebylocals/services/backend"
)

var (
	// ErrNotSignedIn means the backend refused the create call with 401.
	ErrNotSignedIn = errors.New("experience: sign in required")
	// ErrNotPermitted means the caller is signed in but may not host (403).
	ErrNotPermitted = errors.New("experience: not permitted")
)

// ValidationError lists the draft fields that block submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "experience: invalid draft: " + strings.Join(parts, "; ")
}

// classifyCreate maps a failed create call onto the flow's error kinds.
func classifyCreate(err error) error {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrNotSignedIn, err)
	case errors.Is(err, backend.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrNotPermitted, err)
	default:
		return fmt.Errorf("experience: create failed: %w", err)
	}
}
