package utils

import (
	"context"
	"errors"
	"net/http"

	"experiencebylocals/services/backend"
	"experiencebylocals/services/chat"
	"experiencebylocals/services/experience"
	"experiencebylocals/services/filter"
	"experiencebylocals/services/oauth"
	"experiencebylocals/services/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Messages shown for the error kinds every handler shares.
const (
	MsgSignInRequired = "sign in required"
	MsgNotPermitted   = "you are not permitted to do that"
	MsgUnavailable    = "service unavailable, please try again later"
	MsgNotFound       = "not found"
)

// statusClientClosed is logged when the caller disconnected first.
const statusClientClosed = 499

// RespondError maps err onto a status and message and aborts the chain.
func RespondError(c *gin.Context, err error) {
	var (
		validation *experience.ValidationError
		param      *filter.ParamError
		status     *backend.StatusError
		platform   *chat.PlatformError
	)

	switch {
	case errors.Is(err, context.Canceled):
		requestLogger(c).Debug("client went away", zap.Error(err))
		c.AbortWithStatus(statusClientClosed)

	case errors.As(err, &validation):
		writeError(c, http.StatusBadRequest, ErrorResponse{Error: "please fill in the required fields", Fields: validation.Fields})
	case errors.As(err, &param):
		JSONError(c, http.StatusBadRequest, "invalid filter", param.Error())

	case errors.Is(err, user.ErrInvalidCredentials):
		JSONError(c, http.StatusUnauthorized, "Invalid username or password", "")
	case errors.Is(err, user.ErrNotRegistered):
		JSONError(c, http.StatusNotFound, "Account not registered. Please sign up first.", "")
	case errors.Is(err, oauth.ErrInvalidToken):
		JSONError(c, http.StatusUnauthorized, "sign-in token rejected", err.Error())
	case errors.Is(err, oauth.ErrUnsupportedProvider), errors.Is(err, oauth.ErrProviderDisabled):
		JSONError(c, http.StatusBadRequest, "sign-in provider not available", err.Error())
	case errors.Is(err, user.ErrChatDisabled), errors.Is(err, chat.ErrNotConfigured):
		JSONError(c, http.StatusServiceUnavailable, "messaging is not available", "")

	case errors.Is(err, experience.ErrNotSignedIn), errors.Is(err, backend.ErrUnauthorized), errors.Is(err, user.ErrNoSession):
		JSONError(c, http.StatusUnauthorized, MsgSignInRequired, "")
	case errors.Is(err, experience.ErrNotPermitted), errors.Is(err, backend.ErrForbidden):
		JSONError(c, http.StatusForbidden, MsgNotPermitted, "")
	case errors.Is(err, backend.ErrNotFound):
		JSONError(c, http.StatusNotFound, MsgNotFound, "")

	case backend.IsUnavailable(err), errors.As(err, &platform):
		requestLogger(c).Error("upstream failure", zap.Error(err))
		JSONError(c, http.StatusBadGateway, MsgUnavailable, "")
	case errors.As(err, &status):
		msg := status.Message
		if msg == "" {
			msg = http.StatusText(status.Status)
		}
		JSONError(c, status.Status, msg, "")

	default:
		requestLogger(c).Error("unhandled error", zap.Error(err))
		JSONError(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
	}
}
