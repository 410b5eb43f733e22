package routes

import (
	"time"

	"experiencebylocals/handlers"
	"experiencebylocals/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries the router settings that come from configuration.
type Options struct {
	AllowedOrigins []string
	// IdempotencyStore backs the Idempotency-Key guard on create routes.
	IdempotencyStore *redis.Client
}

// RegisterHealthRoutes registers health and metrics endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterAuthRoutes registers session bootstrap and sign-in endpoints.
func RegisterAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/config", hb.Config)
	api.GET("/session", hb.GetSession)

	auth := api.Group("/auth")
	{
		auth.POST("/sign-in", hb.SignIn)
		auth.POST("/sign-up", hb.SignUp)
		auth.POST("/oauth", hb.OAuth)
		auth.POST("/sign-out", middleware.RequireUser(), hb.SignOut)
	}
}

// RegisterExperienceRoutes registers browsing, creation and community endpoints.
func RegisterExperienceRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	api.GET("/tags", hb.Tags)

	exp := api.Group("/experiences")
	{
		// Public browsing
		exp.GET("", hb.ListExperiences)
		exp.GET("/filter", hb.Filter)
		exp.GET("/:id", hb.GetExperience)

		protected := exp.Group("")
		protected.Use(middleware.RequireUser())
		if opts.IdempotencyStore != nil {
			protected.POST("", middleware.Idempotency(opts.IdempotencyStore), hb.CreateExperience)
		} else {
			protected.POST("", hb.CreateExperience)
		}
		protected.DELETE("/:id", hb.DeleteExperience)
		protected.POST("/:id/reviews", hb.AddReview)
		protected.POST("/:id/bookings", hb.RegisterBooking)
	}

	api.DELETE("/bookings/:id", middleware.RequireUser(), hb.CancelBooking)
}

// RegisterAccountRoutes registers the account page and host profiles.
func RegisterAccountRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/users/:id", hb.GetUser)

	account := api.Group("/account")
	{
		account.Use(middleware.RequireUser())
		account.GET("", hb.GetAccount)
		account.POST("", hb.UpdateAccount)
	}
}

// RegisterMessagingRoutes registers the chat endpoints.
func RegisterMessagingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	msg := api.Group("/messages")
	{
		msg.Use(middleware.RequireUser())
		msg.GET("/contacts", hb.Contacts)
		msg.POST("/dm", hb.StartDM)
		msg.POST("/sync", hb.SyncChat)
	}
}

// CORS is the gateway's CORS policy. The web client sends the backend session
// cookie, so origins must be explicit.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-CSRFToken", middleware.IdempotencyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-Idempotency-Hit"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RegisterRoutes installs CORS ahead of chain, so responses the chain aborts
// early still carry CORS headers, then registers every endpoint.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options, chain ...gin.HandlerFunc) {
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(chain...)

	RegisterHealthRoutes(r, hb)

	api := r.Group("/api")
	RegisterAuthRoutes(api, hb)
	RegisterExperienceRoutes(api, hb, opts)
	RegisterAccountRoutes(api, hb)
	RegisterMessagingRoutes(api, hb)
}
