package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"experiencebylocals/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 5*time.Second, nil)
}

func TestCurrentUser(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *models.User
	}{
		{name: "signed in", status: 200, body: `{"username":"ana","email":"ana@example.com"}`, want: &models.User{Username: "ana", Email: "ana@example.com"}},
		{name: "wrapped", status: 200, body: `{"user":{"username":"ana","email":"ana@example.com"}}`, want: &models.User{Username: "ana", Email: "ana@example.com"}},
		{name: "null user", status: 200, body: `{"user":null}`},
		{name: "unauthorized", status: 401, body: `{"error":"Not authenticated"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/general/user", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			u, err := c.CurrentUser(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestCurrentUserServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	u, err := c.CurrentUser(context.Background())
	assert.Nil(t, u)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestStatusErrorMatchesSentinels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/general/event/delete/1":
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"detail":"not the host"}`)
		case "/api/general/event/delete/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})

	err := c.DeleteEvent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "not the host")

	assert.ErrorIs(t, c.DeleteEvent(context.Background(), 2), ErrNotFound)
	assert.ErrorIs(t, c.DeleteEvent(context.Background(), 3), ErrUnauthorized)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base, time.Second, nil)
	_, err := c.Tags(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, IsUnavailable(err))
}

func TestCancelledContextIsNotSent(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Tags(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCookiesForwardedAndRefreshed(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(SessionCookie)
		if err == nil {
			seen = append(seen, ck.Value)
		}
		_, err = r.Cookie("tracking")
		assert.Error(t, err)
		if r.URL.Path == "/api/general/user/authenticate" {
			assert.Equal(t, "csrf-1", r.Header.Get("X-CSRFToken"))
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "new-session", Path: "/"})
		}
		_, _ = io.WriteString(w, `{"username":"ana"}`)
	})

	bound := c.WithCookies([]*http.Cookie{
		{Name: SessionCookie, Value: "old-session"},
		{Name: CSRFCookie, Value: "csrf-1"},
		{Name: "tracking", Value: "x"},
	})
	require.NoError(t, bound.Authenticate(context.Background(), "ana", "pw"))
	_, err := bound.CurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"old-session", "new-session"}, seen)
	assert.Equal(t, "new-session", bound.SessionID())
	assert.Empty(t, c.SessionID(), "base client must stay unbound")

	relayed := bound.DrainCookies()
	require.Len(t, relayed, 1)
	assert.Equal(t, "new-session", relayed[0].Value)
	assert.Empty(t, bound.DrainCookies())
}

func TestUnboundClientKeepsNoCookies(t *testing.T) {
	var sent []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(SessionCookie); err == nil {
			sent = append(sent, ck.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "issued", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "csrf", Path: "/"})
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Health(context.Background()))
	}

	assert.Empty(t, sent, "unbound client must not pick up a session")
	assert.Empty(t, c.SessionID())
	assert.Empty(t, c.DrainCookies())

	bound := c.WithCookies(nil)
	require.NoError(t, bound.Health(context.Background()))
	assert.Equal(t, "issued", bound.SessionID())
	assert.Len(t, bound.DrainCookies(), 2)
}

func TestLogoutClearsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", MaxAge: -1})
	})
	bound := c.WithCookies([]*http.Cookie{{Name: SessionCookie, Value: "s1"}})
	require.NoError(t, bound.Logout(context.Background()))
	assert.Empty(t, bound.SessionID())
}

func TestCreateEventSendsEmptyPhotoList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{}, body["photos"])
		assert.Equal(t, "Sunrise hike", body["title"])
		_, _ = io.WriteString(w, `{"id":42,"title":"Sunrise hike","price":"15.00","photos":[]}`)
	})

	e, err := c.CreateEvent(context.Background(), models.EventCreateRequest{Title: "Sunrise hike"})
	require.NoError(t, err)
	assert.Equal(t, 42, e.ID)
	assert.Equal(t, models.Price(15), e.Price)
}

func TestUploadPhoto(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/general/upload", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("event_id"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "a.jpg", hdr.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))
		_, _ = io.WriteString(w, `{"fileUrl":"/media/a.jpg"}`)
	})

	u, err := c.UploadPhoto(context.Background(), 42, "a.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/media/a.jpg", u)
}

func TestListEventsPassesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "radius=25&tags_include=hiking", r.URL.RawQuery)
		_, _ = io.WriteString(w, `[{"id":1,"price":9.5},{"id":2,"price":null}]`)
	})

	q := url.Values{"tags_include": {"hiking"}, "radius": {"25"}}
	events, err := c.ListEvents(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.Price(9.5), events[0].Price)
}

func TestCreateUserMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "ana@example.com", r.FormValue("username"))
		assert.Equal(t, "true", r.FormValue("is_host"))
		assert.Equal(t, "true", r.FormValue("is_traveler"))
		_, _ = io.WriteString(w, `{"message":"User created successfully","user_id":3}`)
	})

	err := c.CreateUser(context.Background(), models.SignUpRequest{
		Email: "ana@example.com", Password: "pw", FirstName: "Ana", LastName: "Lee", Role: models.RoleBoth,
	})
	require.NoError(t, err)
}

func TestMessaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/general/messaging/allowed-uids":
			_, _ = io.WriteString(w, `["anaexamplecom","bobexamplecom"]`)
		case "/api/general/messaging/start-dm":
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 7, body["user_id"])
			_, _ = io.WriteString(w, `{"uid":"bobexamplecom"}`)
		}
	})

	uids, err := c.AllowedUIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"anaexamplecom", "bobexamplecom"}, uids)

	uid, err := c.StartDM(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "bobexamplecom", uid)
}

func TestErrorMessageFallsBackToBody(t *testing.T) {
	assert.Equal(t, "Invalid username or password", errorMessage([]byte(`{"error":"Invalid username or password"}`)))
	assert.Equal(t, "gateway timeout", errorMessage([]byte("gateway timeout\n")))
	assert.True(t, errors.Is(&StatusError{Status: 401}, ErrUnauthorized))
}
