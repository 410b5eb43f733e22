package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"experiencebylocals/config"
	"experiencebylocals/handlers"
	"experiencebylocals/middleware"
	"experiencebylocals/routes"
	"experiencebylocals/services/backend"
	"experiencebylocals/services/chat"
	"experiencebylocals/services/experience"
	"experiencebylocals/services/oauth"
	"experiencebylocals/services/session"
	"experiencebylocals/services/storage"
	"experiencebylocals/services/user"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	utils.InitRedis()

	// Upstreams.
	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, logger.Named("backend"))
	resolver := session.NewResolver(session.NewRedisCache(utils.GetSessionCacheClient()), cfg.SessionCacheTTL, logger.Named("session"))

	platform := chat.NewCometChat(chat.CometChatConfig{
		AppID:  cfg.CometChatAppID,
		Region: cfg.CometChatRegion,
		APIKey: cfg.CometChatAPIKey,
	}, logger.Named("cometchat"))
	reconciler := chat.NewReconciler(platform, chat.NewRedisStateStore(utils.GetChatStateClient(), utils.ChatStateTTL), logger.Named("chat"))

	verifier := oauth.NewVerifier(oauth.Config{
		GoogleClientID: cfg.GoogleClientID,
		AppleClientID:  cfg.AppleClientID,
	})

	// Services.
	userService := &user.DefaultUserService{
		Sessions: resolver,
		Chat:     reconciler,
		Platform: platform,
		OAuth:    verifier,
		Logger:   logger.Named("user"),
	}
	creator := experience.NewCreator(cfg.HostCodePhrase, logger.Named("experience"))
	photos := photoStoreFactory(cfg, logger)

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewAuthHandler(userService),
		handlers.NewExperienceHandler(creator, photos),
		handlers.NewTagsHandler(utils.GetCacheClient(), cfg.TagsCacheTTL),
		handlers.NewAccountHandler(userService),
		handlers.NewMessagingHandler(userService),
		handlers.ConfigHandler(cfg),
	)

	// Create the Gin router.
	router := gin.New()
	routes.RegisterRoutes(router, handlerBundle, routes.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		IdempotencyStore: utils.GetCacheClient(),
	},
		utils.ErrorHandler(),
		middleware.RequestLogger(logger),
		middleware.Metrics(),
		middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin),
		middleware.SessionMiddleware(backendClient, resolver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	utils.StartHealthMonitor(ctx, utils.RedisClients(), backendClient.Health)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("backend", cfg.BackendBaseURL), zap.String("photoStore", cfg.PhotoStore))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ServerShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("main: server forced to shutdown", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}

// photoStoreFactory picks where create-flow photos go.
func photoStoreFactory(cfg config.Config, logger *zap.Logger) handlers.PhotoStoreFactory {
	if cfg.PhotoStore == "cloudinary" {
		store, err := storage.NewCloudinaryPhotoStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder, logger.Named("cloudinary"))
		if err != nil {
			logger.Fatal("main: failed to initialize cloudinary photo store", zap.Error(err))
		}
		return func(*backend.Client) experience.PhotoStore { return store }
	}
	return func(client *backend.Client) experience.PhotoStore { return storage.NewBackendPhotoStore(client) }
}
