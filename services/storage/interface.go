// Package storage holds the photo stores the create flow uploads through.
package storage

import (
	"context"
	"fmt"
	"io"
)

// PhotoStore uploads one experience photo and returns its public URL.
type PhotoStore interface {
	Upload(ctx context.Context, eventID int, filename string, content io.Reader) (string, error)
}

// photoUploader is the backend call behind BackendPhotoStore.
type photoUploader interface {
	UploadPhoto(ctx context.Context, eventID int, filename string, content io.Reader) (string, error)
}

// BackendPhotoStore uploads through the REST backend's upload endpoint, with
// the caller's session.
type BackendPhotoStore struct {
	client photoUploader
}

// NewBackendPhotoStore wraps a request-bound backend client.
func NewBackendPhotoStore(client photoUploader) *BackendPhotoStore {
	return &BackendPhotoStore{client: client}
}

func (s *BackendPhotoStore) Upload(ctx context.Context, eventID int, filename string, content io.Reader) (string, error) {
	url, err := s.client.UploadPhoto(ctx, eventID, filename, content)
	if err != nil {
		return "", fmt.Errorf("BackendPhotoStore: failed to upload %s: %w", filename, err)
	}
	return url, nil
}
