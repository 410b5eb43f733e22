package backend

import (
	"context"
	"net/http"

	"experiencebylocals/models"
)

// Reviews lists the reviews of one experience.
func (c *Client) Reviews(ctx context.Context, eventID int) ([]models.Review, error) {
	var out []models.Review
	if err := c.doJSON(ctx, http.MethodGet, idPath("/general/event/%s/reviews", eventID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReview posts a review as the caller.
func (c *Client) CreateReview(ctx context.Context, review models.Review) error {
	return c.doJSON(ctx, http.MethodPost, "/general/reviews/create", nil, review, nil)
}

// RegisterBooking books the caller onto an experience.
func (c *Client) RegisterBooking(ctx context.Context, eventID int) error {
	return c.doJSON(ctx, http.MethodPost, idPath("/general/booking/register/%s", eventID), nil, nil, nil)
}

// DeleteBooking cancels one of the caller's bookings.
func (c *Client) DeleteBooking(ctx context.Context, bookingID int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/general/booking/delete/%s", bookingID), nil, nil, nil)
}

// Tags lists every tag experiences can carry.
func (c *Client) Tags(ctx context.Context) ([]models.Tag, error) {
	var resp struct {
		Tags []models.Tag `json:"tags"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/general/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// AllowedUIDs lists the chat uids the caller may message.
func (c *Client) AllowedUIDs(ctx context.Context) ([]string, error) {
	var uids []string
	if err := c.doJSON(ctx, http.MethodGet, "/general/messaging/allowed-uids", nil, nil, &uids); err != nil {
		return nil, err
	}
	return uids, nil
}

// StartDM opens a direct conversation with a user and returns their chat uid.
func (c *Client) StartDM(ctx context.Context, userID int) (string, error) {
	var resp struct {
		UID string `json:"uid"`
	}
	body := map[string]int{"user_id": userID}
	if err := c.doJSON(ctx, http.MethodPost, "/general/messaging/start-dm", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.UID, nil
}
