package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"experiencebylocals/middleware"
	"experiencebylocals/models"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type reviewRequest struct {
	Text   string `json:"text" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
}

// AddReviewHandler posts a review for the experience in the path.
func AddReviewHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "a review needs text and a rating from 1 to 5", err.Error())
		return
	}
	review := models.Review{Text: req.Text, Rating: req.Rating, EventID: id}
	if err := middleware.GetSession(c).Backend().CreateReview(c.Request.Context(), review); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, review)
}

// RegisterBookingHandler books the caller onto the experience in the path.
func RegisterBookingHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := middleware.GetSession(c).Backend().RegisterBooking(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "booking registered", "event_id": id})
}

func CancelBookingHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := middleware.GetSession(c).Backend().DeleteBooking(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "booking cancelled"})
}

// TagsHandler serves the tag list from Redis, filling it from the backend on a miss.
type TagsHandler struct {
	Cache *redis.Client
	TTL   time.Duration
}

func NewTagsHandler(cache *redis.Client, ttl time.Duration) *TagsHandler {
	return &TagsHandler{Cache: cache, TTL: ttl}
}

func (h *TagsHandler) GetTagsHandler(c *gin.Context) {
	logger := getLogger(c)
	ctx := c.Request.Context()

	if tags, ok := h.cached(ctx, logger); ok {
		c.JSON(http.StatusOK, gin.H{"tags": tags})
		return
	}

	tags, err := middleware.GetSession(c).Backend().Tags(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	if h.Cache != nil {
		if data, err := json.Marshal(tags); err == nil {
			if err := h.Cache.Set(ctx, utils.TagsCacheKey, data, h.TTL).Err(); err != nil {
				logger.Warn("failed to cache tags", zap.Error(err))
			}
		}
	}
	respond(c, http.StatusOK, gin.H{"tags": tags})
}

func (h *TagsHandler) cached(ctx context.Context, logger *zap.Logger) ([]models.Tag, bool) {
	if h.Cache == nil {
		return nil, false
	}
	data, err := h.Cache.Get(ctx, utils.TagsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("tags cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var tags []models.Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		logger.Warn("discarding corrupt tags cache entry", zap.Error(err))
		return nil, false
	}
	return tags, true
}
