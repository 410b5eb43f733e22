// models/user.go
package models

// User is the profile the backend returns for a signed-in caller or a host.
type User struct {
	ID           int    `json:"id,omitempty"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfilePic   string `json:"profile_pic,omitempty"`
	IsHost       bool   `json:"is_host,omitempty"`
	IsTraveler   bool   `json:"is_traveler,omitempty"`
	AuthProvider string `json:"auth_provider,omitempty"`
}

// DisplayName is the name shown to other users, falling back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Role values accepted at sign-up.
const (
	RoleTraveler = "traveler"
	RoleHost     = "host"
	RoleBoth     = "both"
)

// SignUpRequest is the account creation form.
type SignUpRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Bio       string `json:"bio"`
	Role      string `json:"role" binding:"required,oneof=traveler host both"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Picture   *Upload
}
