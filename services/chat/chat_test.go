package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"experiencebylocals/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIDFromEmail(t *testing.T) {
	assert.Equal(t, "anaexamplecom", UIDFromEmail("ana@example.com"))
	assert.Equal(t, "firstlastmailcouk", UIDFromEmail(" first.last@mail.co.uk "))
	assert.Equal(t, "", UIDFromEmail(""))
}

// fakePlatform records calls. Users in known exist on the platform.
type fakePlatform struct {
	mu       sync.Mutex
	known    map[string]bool
	logins   []string
	logouts  []string
	created  []string
	loginErr error
	logoutOK bool
	delay    time.Duration
	initErr  error
}

func newFakePlatform(known ...string) *fakePlatform {
	p := &fakePlatform{known: map[string]bool{}, logoutOK: true}
	for _, uid := range known {
		p.known[uid] = true
	}
	return p
}

func (p *fakePlatform) Init(context.Context) error { return p.initErr }

func (p *fakePlatform) CreateUser(_ context.Context, u models.ChatUser) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, u.UID)
	p.known[u.UID] = true
	return nil
}

func (p *fakePlatform) Login(_ context.Context, uid string) (string, error) {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, uid)
	if p.loginErr != nil {
		return "", p.loginErr
	}
	if !p.known[uid] {
		return "", &PlatformError{Op: "login", Status: 404, Code: "ERR_UID_NOT_FOUND"}
	}
	return "token-" + uid, nil
}

func (p *fakePlatform) Logout(_ context.Context, uid, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, uid)
	if !p.logoutOK {
		return errors.New("logout failed")
	}
	return nil
}

func (p *fakePlatform) ListUsers(context.Context, []string, int) ([]models.ChatUser, error) {
	return nil, nil
}

func TestSyncTwiceLogsInOnce(t *testing.T) {
	p := newFakePlatform("anaexamplecom")
	r := NewReconciler(p, NewMemoryStateStore(), nil)

	rec, err := r.Sync(context.Background(), "s1", "ana@example.com", "Ana")
	require.NoError(t, err)
	assert.Equal(t, Record{State: LoggedIn, UID: "anaexamplecom", AuthToken: "token-anaexamplecom"}, rec)

	_, err = r.Sync(context.Background(), "s1", "ana@example.com", "Ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"anaexamplecom"}, p.logins)
}

func TestSyncCreatesMissingUser(t *testing.T) {
	p := newFakePlatform()
	r := NewReconciler(p, NewMemoryStateStore(), nil)

	rec, err := r.Sync(context.Background(), "s1", "bob@example.com", "Bob")
	require.NoError(t, err)
	assert.Equal(t, LoggedIn, rec.State)
	assert.Equal(t, []string{"bobexamplecom"}, p.created)
	assert.Equal(t, []string{"bobexamplecom", "bobexamplecom"}, p.logins)
}

func TestSyncSwitchesUser(t *testing.T) {
	p := newFakePlatform("anaexamplecom", "bobexamplecom")
	p.logoutOK = false
	r := NewReconciler(p, NewMemoryStateStore(), nil)

	_, err := r.Sync(context.Background(), "s1", "ana@example.com", "")
	require.NoError(t, err)
	rec, err := r.Sync(context.Background(), "s1", "bob@example.com", "")
	require.NoError(t, err, "a failed stale logout is tolerated")

	assert.Equal(t, "bobexamplecom", rec.UID)
	assert.Equal(t, []string{"anaexamplecom"}, p.logouts)
}

func TestSyncFailureReturnsToLoggedOut(t *testing.T) {
	p := newFakePlatform("anaexamplecom")
	p.loginErr = &PlatformError{Op: "login", Status: 500, Code: "ERR_INTERNAL"}
	store := NewMemoryStateStore()
	r := NewReconciler(p, store, nil)

	_, err := r.Sync(context.Background(), "s1", "ana@example.com", "")
	require.Error(t, err)

	rec, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, LoggedOut, rec.State)
}

func TestSyncNotConfigured(t *testing.T) {
	p := newFakePlatform()
	p.initErr = ErrNotConfigured
	r := NewReconciler(p, NewMemoryStateStore(), nil)

	_, err := r.Sync(context.Background(), "s1", "ana@example.com", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, p.logins)

	_, err = r.Sync(context.Background(), "s1", "", "")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestConcurrentSyncLogsInOnce(t *testing.T) {
	p := newFakePlatform("anaexamplecom")
	p.delay = 20 * time.Millisecond
	r := NewReconciler(p, NewMemoryStateStore(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Sync(context.Background(), "s1", "ana@example.com", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, p.logins, 1)
}

func TestReset(t *testing.T) {
	p := newFakePlatform("anaexamplecom")
	store := NewMemoryStateStore()
	r := NewReconciler(p, store, nil)

	_, err := r.Sync(context.Background(), "s1", "ana@example.com", "")
	require.NoError(t, err)
	require.NoError(t, r.Reset(context.Background(), "s1"))
	assert.Equal(t, []string{"anaexamplecom"}, p.logouts)

	rec, err := r.Current(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, LoggedOut, rec.State)

	require.NoError(t, r.Reset(context.Background(), "never-seen"))
}

func TestRedisStateStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewRedisStateStore(rdb, time.Hour)
	ctx := context.Background()

	rec, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, LoggedOut, rec.State)

	want := Record{State: LoggedIn, UID: "anaexamplecom", AuthToken: "t"}
	require.NoError(t, store.Set(ctx, "s1", want))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Hour, mr.TTL(stateKeyPrefix+"s1"))

	mr.FastForward(40 * time.Minute)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(stateKeyPrefix+"s1"), "reads extend the expiry")

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists(stateKeyPrefix+"s1"))
}

func fakeCometChat(t *testing.T) (*CometChat, *[]string) {
	t.Helper()
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/users":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"ERR_UID_ALREADY_EXISTS","message":"exists"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/users/ghost/auth_tokens":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"ERR_UID_NOT_FOUND","message":"no such uid"}}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/auth_tokens"):
			_, _ = w.Write([]byte(`{"data":{"uid":"ana","authToken":"ana_123"}}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"data":{"success":true}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			assert.Equal(t, "ana,bob", r.URL.Query().Get("uids"))
			assert.Equal(t, "50", r.URL.Query().Get("perPage"))
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []models.ChatUser{{UID: "ana", Name: "Ana"}, {UID: "bob", Name: "Bob"}}})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	t.Cleanup(srv.Close)
	return NewCometChat(CometChatConfig{AppID: "app", Region: "us", APIKey: "secret", BaseURL: srv.URL}, nil), &seen
}

func TestCometChatClient(t *testing.T) {
	c, seen := fakeCometChat(t)
	ctx := context.Background()

	require.NoError(t, c.CreateUser(ctx, models.ChatUser{UID: "ana", Name: "Ana"}), "already exists is success")

	token, err := c.Login(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana_123", token)

	_, err = c.Login(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUIDNotFound)

	require.NoError(t, c.Logout(ctx, "ana", "ana_123"))

	users, err := c.ListUsers(ctx, []string{"ana", "bob"}, 50)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	assert.Contains(t, *seen, "DELETE /users/ana/auth_tokens/ana_123")
}

func TestCometChatInitOnce(t *testing.T) {
	c := NewCometChat(CometChatConfig{AppID: "app"}, nil)
	err := c.Init(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Same(t, err, c.Init(context.Background()))

	_, err = c.Login(context.Background(), "ana")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCometChatBaseURL(t *testing.T) {
	c := NewCometChat(CometChatConfig{AppID: "123abc", Region: "eu", APIKey: "k"}, nil)
	assert.Equal(t, "https://123abc.api-eu.cometchat.io/v3", c.baseURL)
}
