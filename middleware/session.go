package middleware

import (
	"net/http"

	"experiencebylocals/services/backend"
	"experiencebylocals/services/session"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware binds the caller's backend cookies to a Session and
// resolves it before any handler runs.
func SessionMiddleware(base *backend.Client, resolver *session.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cookies []*http.Cookie
		for _, name := range backend.ForwardedCookies {
			if ck, err := c.Request.Cookie(name); err == nil {
				cookies = append(cookies, ck)
			}
		}

		s := resolver.New(base.WithCookies(cookies))
		if _, err := s.User(c.Request.Context()); err != nil {
			getLogger(c).Error("session bootstrap failed, continuing as guest", zap.Error(err))
		}

		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), s))
		c.Next()
	}
}

// GetSession returns the request's Session. It is never nil behind SessionMiddleware.
func GetSession(c *gin.Context) *session.Session {
	return session.From(c.Request.Context())
}

// SetSession replaces the request's Session, after sign-in rotated it.
func SetSession(c *gin.Context, s *session.Session) {
	c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), s))
}

// RequireUser rejects guests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := GetSession(c)
		if s == nil || !s.SignedIn() {
			utils.JSONError(c, http.StatusUnauthorized, "sign in required", "")
			return
		}
		c.Next()
	}
}

// RelayCookies copies the cookies the backend set during this request onto
// the response, scoped to the gateway's own host.
func RelayCookies(c *gin.Context) {
	s := GetSession(c)
	if s == nil {
		return
	}
	for _, ck := range s.Backend().DrainCookies() {
		relayed := *ck
		relayed.Domain = ""
		relayed.Raw = ""
		relayed.Unparsed = nil
		if relayed.Path == "" {
			relayed.Path = "/"
		}
		http.SetCookie(c.Writer, &relayed)
	}
}

func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}
