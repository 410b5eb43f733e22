package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"experiencebylocals/services/backend"
	"experiencebylocals/services/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend answers "who am I" with ana for sessionid "live".
func fakeBackend(t *testing.T, calls *atomic.Int32) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if ck, err := r.Cookie(backend.SessionCookie); err == nil && ck.Value == "live" {
			http.SetCookie(w, &http.Cookie{Name: backend.CSRFCookie, Value: "rotated", Domain: "backend.internal", Path: "/"})
			_, _ = io.WriteString(w, `{"username":"ana","email":"ana@example.com"}`)
			return
		}
		_, _ = io.WriteString(w, `{"user":null}`)
	}))
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL, 5*time.Second, nil)
}

func newRouter(t *testing.T, calls *atomic.Int32) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.Use(SessionMiddleware(fakeBackend(t, calls), session.NewResolver(nil, time.Minute, nil)))
	return r
}

func TestRequireUser(t *testing.T) {
	r := newRouter(t, nil)
	r.GET("/private", RequireUser(), func(c *gin.Context) {
		u := GetSession(c).CurrentUser()
		c.JSON(http.StatusOK, gin.H{"username": u.Username})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"sign in required"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: backend.SessionCookie, Value: "live"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"ana"}`, w.Body.String())
}

func TestSessionResolvedBeforeHandler(t *testing.T) {
	var calls atomic.Int32
	r := newRouter(t, &calls)
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, int32(1), calls.Load())
		s := GetSession(c)
		assert.True(t, s.SignedIn())
		assert.True(t, s.SignedIn())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: backend.SessionCookie, Value: "live"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRelayCookies(t *testing.T) {
	r := newRouter(t, nil)
	r.GET("/", func(c *gin.Context) {
		RelayCookies(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: backend.SessionCookie, Value: "live"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	set := w.Result().Cookies()
	require.Len(t, set, 1)
	assert.Equal(t, backend.CSRFCookie, set[0].Name)
	assert.Equal(t, "rotated", set[0].Value)
	assert.Empty(t, set[0].Domain)
}

func TestRequestLoggerSetsID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Get("logger")
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestMetricsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var served atomic.Int32
	r := newRouter(t, nil)
	r.POST("/things", Idempotency(rdb), func(c *gin.Context) {
		n := served.Add(1)
		c.JSON(http.StatusCreated, gin.H{"n": n})
	})

	post := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader("{}"))
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := post("k1")
	assert.Equal(t, http.StatusCreated, first.Code)
	again := post("k1")
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Equal(t, "true", again.Header().Get("X-Idempotency-Hit"))
	assert.Equal(t, int32(1), served.Load())

	post("")
	post("k2")
	assert.Equal(t, int32(3), served.Load())
}

func TestIdempotencyInProgress(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	require.NoError(t, mr.Set("idempotency:guest:/things:k1", processing))

	r := newRouter(t, nil)
	r.POST("/things", Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	req.Header.Set(IdempotencyHeader, "k1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdempotencyReleasesOnServerError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := newRouter(t, nil)
	r.POST("/things", Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	req.Header.Set(IdempotencyHeader, "k1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, mr.Exists("idempotency:guest:/things:k1"))
}
