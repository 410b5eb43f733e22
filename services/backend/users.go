package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"experiencebylocals/models"
)

// CurrentUser asks the backend who the caller is. A guest yields a nil user
// and a nil error, whether the backend answers 401 or {"user": null}.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, "/general/user", nil, nil, &raw)
	if errors.Is(err, ErrUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// decodeUser accepts both a bare user object and {"user": {...}}.
func decodeUser(raw json.RawMessage) (*models.User, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var wrapped struct {
		User *json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("backend: failed to decode user: %w", err)
	}
	if wrapped.User != nil {
		raw = *wrapped.User
		if string(raw) == "null" {
			return nil, nil
		}
	} else if !hasKey(raw, "username") {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("backend: failed to decode user: %w", err)
	}
	if u.Username == "" {
		return nil, nil
	}
	return &u, nil
}

func hasKey(raw json.RawMessage, key string) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

// Authenticate signs the caller in. The backend answers with a session cookie
// that the bound client keeps for the rest of the request.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/general/user/authenticate", nil, body, nil)
}

// OAuthLogin exchanges a provider ID token for a backend session.
func (c *Client) OAuthLogin(ctx context.Context, provider, token string) error {
	body := map[string]string{"provider": provider, "token": token}
	return c.doJSON(ctx, http.MethodPost, "/general/user/oauth-login", nil, body, nil)
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/general/user/logout", nil, nil, nil)
}

// CreateUser registers a new account. The backend takes multipart form data.
func (c *Client) CreateUser(ctx context.Context, req models.SignUpRequest) error {
	isHost, isTraveler := roleFlags(req.Role)
	fields := map[string]string{
		"username":    req.Email,
		"email":       req.Email,
		"password":    req.Password,
		"first_name":  req.FirstName,
		"last_name":   req.LastName,
		"bio":         req.Bio,
		"is_host":     strconv.FormatBool(isHost),
		"is_traveler": strconv.FormatBool(isTraveler),
	}
	return c.doMultipart(ctx, http.MethodPost, "/general/user/create", nil, fields, nil, nil)
}

func roleFlags(role string) (isHost, isTraveler bool) {
	switch role {
	case models.RoleHost:
		return true, false
	case models.RoleBoth:
		return true, true
	default:
		return false, true
	}
}

// UserExistsByEmail reports whether an account is registered for email.
func (c *Client) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	q := url.Values{"email": {email}}
	if err := c.doJSON(ctx, http.MethodGet, "/general/user/exists-by-email", q, nil, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// GetUser fetches a public profile.
func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, idPath("/general/user/%s", id), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser changes the caller's profile. Only non-nil fields are sent.
func (c *Client) UpdateUser(ctx context.Context, update models.ProfileUpdate) error {
	fields := map[string]string{}
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	var files []FilePart
	if update.Picture != nil {
		files = append(files, FilePart{Field: "profile_pic", Filename: update.Picture.Filename, Content: update.Picture.Content})
	}
	return c.doMultipart(ctx, http.MethodPost, "/general/user/update", nil, fields, files, nil)
}

// Bookings lists the caller's bookings.
func (c *Client) Bookings(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/general/user/bookings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HostedEvents lists the experiences the caller hosts.
func (c *Client) HostedEvents(ctx context.Context) ([]models.HostedEvent, error) {
	var out []models.HostedEvent
	if err := c.doJSON(ctx, http.MethodGet, "/general/user/hosted_events", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
