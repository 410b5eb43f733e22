package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error the gateway returns.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorHandler recovers panics raised by handlers and answers with a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.FullPath()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response and aborts the chain.
func JSONError(c *gin.Context, status int, message string, details string) {
	writeError(c, status, ErrorResponse{Error: message, Details: details})
}

func requestLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get("logger"); ok {
		if scoped, ok := l.(*zap.Logger); ok {
			return scoped
		}
	}
	return GetLogger()
}

func writeError(c *gin.Context, status int, body ErrorResponse) {
	logger := requestLogger(c)
	message, details := body.Error, body.Details
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Int("status", status), zap.String("details", details))
	} else {
		logger.Debug(message, zap.Int("status", status), zap.String("details", details))
	}
	c.AbortWithStatusJSON(status, body)
}
