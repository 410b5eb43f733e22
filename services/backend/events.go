package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"experiencebylocals/models"
)

// ListEvents runs the backend search with an already encoded filter.
func (c *Client) ListEvents(ctx context.Context, query Query) ([]models.Event, error) {
	var out []models.Event
	if err := c.doJSON(ctx, http.MethodGet, "/general/event/get_all", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEvent fetches one experience.
func (c *Client) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	var e models.Event
	if err := c.doJSON(ctx, http.MethodGet, idPath("/general/event/id/%s", id), nil, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent submits the form fields of a new experience and returns it with its id.
func (c *Client) CreateEvent(ctx context.Context, req models.EventCreateRequest) (*models.Event, error) {
	if req.Photos == nil {
		req.Photos = []string{}
	}
	var e models.Event
	if err := c.doJSON(ctx, http.MethodPost, "/general/event/create", nil, req, &e); err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, &TransportError{Method: http.MethodPost, Path: "/general/event/create", Err: fmt.Errorf("response carried no event id")}
	}
	return &e, nil
}

// UpdatePhotos replaces the photo list of an experience.
func (c *Client) UpdatePhotos(ctx context.Context, id int, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	body := map[string][]string{"photos": urls}
	return c.doJSON(ctx, http.MethodPatch, idPath("/general/event/id/%s/update_photos", id), nil, body, nil)
}

// DeleteEvent removes a hosted experience.
func (c *Client) DeleteEvent(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/general/event/delete/%s", id), nil, nil, nil)
}

// UploadPhoto stores one file for an experience and returns its public URL.
func (c *Client) UploadPhoto(ctx context.Context, eventID int, filename string, content io.Reader) (string, error) {
	var resp struct {
		FileURL string `json:"fileUrl"`
	}
	q := url.Values{"event_id": {strconv.Itoa(eventID)}}
	files := []FilePart{{Field: "file", Filename: filename, Content: content}}
	if err := c.doMultipart(ctx, http.MethodPost, "/general/upload", q, nil, files, &resp); err != nil {
		return "", err
	}
	if resp.FileURL == "" {
		return "", &TransportError{Method: http.MethodPost, Path: "/general/upload", Err: fmt.Errorf("response carried no fileUrl")}
	}
	return resp.FileURL, nil
}
