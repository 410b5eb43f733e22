// Package chat keeps the hosted chat platform's login in step with the app
// user, one state machine per app session.
package chat

import "strings"

// State is the chat login state of one app session.
type State string

const (
	LoggedOut State = "logged_out"
	LoggingIn State = "logging_in"
	LoggedIn  State = "logged_in"
)

// Record is the persisted chat state of one app session.
type Record struct {
	State     State  `json:"state"`
	UID       string `json:"uid,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
}

// LoggedInAs reports whether the record is a live login for uid.
func (r Record) LoggedInAs(uid string) bool {
	return r.State == LoggedIn && r.UID == uid && r.AuthToken != ""
}

// UIDFromEmail derives the chat uid of an app user: the email without "@" and ".".
func UIDFromEmail(email string) string {
	return strings.NewReplacer("@", "", ".", "").Replace(strings.TrimSpace(email))
}
