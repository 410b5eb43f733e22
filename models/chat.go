package models

// ChatUser is a user on the hosted chat platform.
type ChatUser struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
