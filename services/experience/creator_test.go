package experience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"experiencebylocals/models"
	"experiencebylocals/services/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	createErr error
	patchErr  error
	created   []models.EventCreateRequest
	patched   [][]string
	nextID    int
}

func (f *fakeAPI) CreateEvent(_ context.Context, req models.EventCreateRequest) (*models.Event, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	return &models.Event{ID: f.nextID, Title: req.Title, Photos: req.Photos}, nil
}

func (f *fakeAPI) UpdatePhotos(_ context.Context, _ int, urls []string) error {
	f.patched = append(f.patched, urls)
	return f.patchErr
}

type fakeStore struct {
	fail     map[string]bool
	uploads  []string
	onUpload func(name string)
}

func (s *fakeStore) Upload(_ context.Context, eventID int, filename string, content io.Reader) (string, error) {
	s.uploads = append(s.uploads, filename)
	if s.onUpload != nil {
		s.onUpload(filename)
	}
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	if s.fail[filename] {
		return "", errors.New("upload rejected")
	}
	return fmt.Sprintf("https://cdn.example/%d/%s", eventID, filename), nil
}

func photo(name string) Photo {
	return Photo{Filename: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("bytes of " + name)), nil
	}}
}

func validDraft(photos ...string) Draft {
	d := Draft{
		Title:        "Sunrise hike",
		Description:  "Flatirons at dawn",
		UniqueAspect: "Coffee at the top",
		Location:     "Boulder, Colorado",
		Date:         time.Date(2024, time.June, 5, 6, 0, 0, 0, time.UTC),
		Price:        15,
		Guests:       8,
	}
	for _, p := range photos {
		d.Photos = append(d.Photos, photo(p))
	}
	return d
}

func newTestCreator(states *[]State) *Creator {
	cr := NewCreator("", nil)
	cr.OnTransition = func(_ context.Context, _ int, s State) { *states = append(*states, s) }
	return cr
}

func TestCreateAllPhotosSucceed(t *testing.T) {
	var states []State
	api, store := &fakeAPI{}, &fakeStore{}

	out, err := newTestCreator(&states).Create(context.Background(), api, store, validDraft("a.jpg", "b.jpg"))
	require.NoError(t, err)

	assert.Equal(t, Done, out.State)
	assert.Empty(t, out.Failed)
	assert.Equal(t, []string{"https://cdn.example/1/a.jpg", "https://cdn.example/1/b.jpg"}, out.PhotoURLs)
	assert.Equal(t, [][]string{out.PhotoURLs}, api.patched)
	assert.Equal(t, []State{Drafting, Submitting, Uploading, Patching, Done}, states)
	require.Len(t, api.created, 1)
	assert.NotNil(t, api.created[0].Photos)
	assert.Empty(t, api.created[0].Photos)
}

func TestCreatePartialFailure(t *testing.T) {
	var states []State
	api := &fakeAPI{}
	store := &fakeStore{fail: map[string]bool{"b.jpg": true}}

	out, err := newTestCreator(&states).Create(context.Background(), api, store, validDraft("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, PartialFailure, out.State)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, store.uploads, "a failure must not abort later uploads")
	assert.Equal(t, [][]string{{"https://cdn.example/1/a.jpg", "https://cdn.example/1/c.jpg"}}, api.patched)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "b.jpg", out.Failed[0].Filename)
	assert.Equal(t, PartialFailure, states[len(states)-1])
}

func TestCreateAllUploadsFailSkipsPatch(t *testing.T) {
	var states []State
	api := &fakeAPI{}
	store := &fakeStore{fail: map[string]bool{"a.jpg": true, "b.jpg": true}}

	out, err := newTestCreator(&states).Create(context.Background(), api, store, validDraft("a.jpg", "b.jpg"))
	require.NoError(t, err)

	assert.Equal(t, PartialFailure, out.State)
	assert.Empty(t, api.patched)
	assert.Len(t, out.Failed, 2)
	assert.NotContains(t, states, Patching)
}

func TestCreatePatchFailureFailsEveryUpload(t *testing.T) {
	var states []State
	api := &fakeAPI{patchErr: &backend.StatusError{Method: "PATCH", Status: 500}}
	store := &fakeStore{fail: map[string]bool{"b.jpg": true}}

	out, err := newTestCreator(&states).Create(context.Background(), api, store, validDraft("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, PartialFailure, out.State)
	assert.Empty(t, out.PhotoURLs)
	names := make([]string, 0, len(out.Failed))
	for _, f := range out.Failed {
		names = append(names, f.Filename)
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "c.jpg"}, names)
}

func TestCreateFailureIssuesNoUploads(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &backend.StatusError{Status: http.StatusUnauthorized}, ErrNotSignedIn},
		{"forbidden", &backend.StatusError{Status: http.StatusForbidden}, ErrNotPermitted},
		{"transport", &backend.TransportError{Method: "POST", Err: errors.New("connection refused")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var states []State
			api := &fakeAPI{createErr: tt.err}
			store := &fakeStore{}

			out, err := newTestCreator(&states).Create(context.Background(), api, store, validDraft("a.jpg"))
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Empty(t, store.uploads)
			assert.Empty(t, api.patched)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.True(t, backend.IsUnavailable(err))
				assert.NotErrorIs(t, err, ErrNotSignedIn)
			}
		})
	}
}

func TestCreateValidation(t *testing.T) {
	api, store := &fakeAPI{}, &fakeStore{}
	d := validDraft()
	d.Title = "  "
	d.Guests = 0
	d.Price = -1

	_, err := NewCreator("", nil).Create(context.Background(), api, store, d)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "number_of_guests")
	assert.Contains(t, ve.Fields, "price")
	assert.Empty(t, api.created)
}

func TestCreateHostCode(t *testing.T) {
	api, store := &fakeAPI{}, &fakeStore{}
	cr := NewCreator("locals-only", nil)

	d := validDraft()
	d.HostCode = "guess"
	_, err := cr.Create(context.Background(), api, store, d)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "host_code")

	d.HostCode = "locals-only"
	out, err := cr.Create(context.Background(), api, store, d)
	require.NoError(t, err)
	assert.Equal(t, Done, out.State)
	assert.Empty(t, api.patched)
}

func TestCreateCancelledMidUpload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api := &fakeAPI{}
	store := &fakeStore{onUpload: func(name string) {
		if name == "a.jpg" {
			cancel()
		}
	}}

	out, err := NewCreator("", nil).Create(ctx, api, store, validDraft("a.jpg", "b.jpg"))
	require.NoError(t, err)

	assert.Equal(t, PartialFailure, out.State)
	assert.Equal(t, []string{"a.jpg"}, store.uploads, "no upload may start after cancellation")
	assert.Empty(t, api.patched)
	assert.Len(t, out.Failed, 2)
}

func TestCreateOpenFailure(t *testing.T) {
	api, store := &fakeAPI{}, &fakeStore{}
	d := validDraft("a.jpg")
	d.Photos = append(d.Photos, Photo{Filename: "broken.jpg", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("disk gone")
	}})

	out, err := NewCreator("", nil).Create(context.Background(), api, store, d)
	require.NoError(t, err)
	assert.Equal(t, PartialFailure, out.State)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "broken.jpg", out.Failed[0].Filename)
	assert.Equal(t, []string{"a.jpg"}, store.uploads)
}

func TestStateMarshalText(t *testing.T) {
	b, err := PartialFailure.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "partial_failure", string(b))
}
