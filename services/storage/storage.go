package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CloudinaryPhotoStore uploads photos straight to Cloudinary, one folder per experience.
type CloudinaryPhotoStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

// NewCloudinaryPhotoStore creates a store from account credentials.
func NewCloudinaryPhotoStore(cloudName, apiKey, apiSecret, folder string, logger *zap.Logger) (*CloudinaryPhotoStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("CloudinaryPhotoStore: failed to initialize Cloudinary: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudinaryPhotoStore{cld: cld, folder: strings.Trim(folder, "/"), logger: logger}, nil
}

// Upload stores content under <folder>/<eventID>/ and returns its secure URL.
func (s *CloudinaryPhotoStore) Upload(ctx context.Context, eventID int, filename string, content io.Reader) (string, error) {
	uploadParams := uploader.UploadParams{
		Folder:   path.Join(s.folder, strconv.Itoa(eventID)),
		PublicID: publicID(filename),
	}
	result, err := s.cld.Upload.Upload(ctx, content, uploadParams)
	if err != nil {
		return "", fmt.Errorf("CloudinaryPhotoStore: failed to upload %s: %w", filename, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("CloudinaryPhotoStore: upload of %s rejected: %s", filename, result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("CloudinaryPhotoStore: no URL returned for %s", filename)
	}
	s.logger.Debug("uploaded photo",
		zap.Int("eventID", eventID),
		zap.String("publicID", result.PublicID),
	)
	return result.SecureURL, nil
}

// publicID keeps the readable stem of filename and makes it unique.
func publicID(filename string) string {
	stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, stem)
	if stem == "" || stem == "." {
		return uuid.NewString()
	}
	return stem + "-" + uuid.NewString()[:8]
}
