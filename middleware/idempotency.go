package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// IdempotencyHeader is the client-chosen key of a state-changing request.
const IdempotencyHeader = "Idempotency-Key"

const processing = "PROCESSING"

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// bodyRecorder captures the response while passing it through.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a request whose Idempotency-Key
// was already served, and rejects a concurrent duplicate with 409. Keys are
// scoped to the caller's session. Requests without the header pass through.
func Idempotency(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || redisClient == nil {
			c.Next()
			return
		}

		scope := "guest"
		if s := GetSession(c); s != nil && s.Key != "" {
			scope = s.Key
		}
		idemKey := utils.IdempotencyPrefix + scope + ":" + c.FullPath() + ":" + key
		ctx := c.Request.Context()
		logger := getLogger(c)

		val, err := redisClient.Get(ctx, idemKey).Bytes()
		switch {
		case err == nil && string(val) == processing:
			utils.JSONError(c, http.StatusConflict, "concurrent request", "a request with this Idempotency-Key is in progress")
			return
		case err == nil:
			var stored storedResponse
			if jerr := json.Unmarshal(val, &stored); jerr == nil {
				c.Header("X-Idempotency-Hit", "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
			logger.Warn("discarding unreadable idempotency record", zap.String("key", key))
		case !errors.Is(err, redis.Nil):
			logger.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisClient.SetNX(ctx, idemKey, processing, utils.IdempotencyLockTTL).Result()
		if err != nil || !acquired {
			utils.JSONError(c, http.StatusConflict, "concurrent request", "a request with this Idempotency-Key is in progress")
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// The outcome is stored even when the client went away mid-request.
		ctx = context.WithoutCancel(ctx)
		// Server failures release the key so the client may try again.
		if rec.Status() >= http.StatusInternalServerError {
			redisClient.Del(ctx, idemKey)
			return
		}
		data, _ := json.Marshal(storedResponse{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err := redisClient.Set(ctx, idemKey, data, utils.IdempotencyResultTTL).Err(); err != nil {
			logger.Warn("failed to store idempotency record", zap.Error(err))
		}
	}
}
