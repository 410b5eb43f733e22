package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	gotEvent int
	gotName  string
	gotBody  string
	err      error
}

func (f *fakeUploader) UploadPhoto(_ context.Context, eventID int, filename string, content io.Reader) (string, error) {
	f.gotEvent, f.gotName = eventID, filename
	b, _ := io.ReadAll(content)
	f.gotBody = string(b)
	if f.err != nil {
		return "", f.err
	}
	return "/media/" + filename, nil
}

func TestBackendPhotoStore(t *testing.T) {
	up := &fakeUploader{}
	store := NewBackendPhotoStore(up)

	url, err := store.Upload(context.Background(), 9, "peak.jpg", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "/media/peak.jpg", url)
	assert.Equal(t, 9, up.gotEvent)
	assert.Equal(t, "img", up.gotBody)
}

func TestBackendPhotoStoreWrapsError(t *testing.T) {
	cause := errors.New("status 413")
	store := NewBackendPhotoStore(&fakeUploader{err: cause})

	_, err := store.Upload(context.Background(), 9, "huge.jpg", strings.NewReader("img"))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "huge.jpg")
}

func TestNewCloudinaryPhotoStoreNeedsCredentials(t *testing.T) {
	_, err := NewCloudinaryPhotoStore("demo", "", "secret", "experiences", nil)
	assert.Error(t, err)

	s, err := NewCloudinaryPhotoStore("demo", "key", "secret", "/experiences/", nil)
	require.NoError(t, err)
	assert.Equal(t, "experiences", s.folder)
}

func TestPublicID(t *testing.T) {
	id := publicID("My Trip (1).JPG")
	assert.True(t, strings.HasPrefix(id, "My-Trip--1--"), id)
	assert.Len(t, id, len("My-Trip--1-")+1+8)

	assert.NotEqual(t, publicID("a.jpg"), publicID("a.jpg"))
	assert.Len(t, publicID(".jpg"), 36)
}
