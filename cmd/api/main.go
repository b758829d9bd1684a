package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arborhq/arbor-backend/internal/config"
	"github.com/arborhq/arbor-backend/internal/handler"
	"github.com/arborhq/arbor-backend/internal/middleware"
	"github.com/arborhq/arbor-backend/internal/repository/postgres"
	"github.com/arborhq/arbor-backend/internal/repository/storage"
	"github.com/arborhq/arbor-backend/internal/service"
	"github.com/arborhq/arbor-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	pageRepo := postgres.NewPageRepository(pool)
	grantRepo := postgres.NewCollabGrantRepository(pool)
	addressRepo := postgres.NewPublicAddressRepository(pool)

	// Initialize services
	pageService := service.NewPageService(pageRepo, workspaceRepo, addressRepo)
	pageService.SetEntitlements(service.AllowAllEntitlements{})
	workspaceService := service.NewWorkspaceService(workspaceRepo, pageRepo, pageService)
	accessService := service.NewAccessService(pageRepo, workspaceRepo, grantRepo)
	collabService := service.NewCollabService(pageRepo, workspaceRepo, grantRepo)
	collabService.SetEntitlements(service.AllowAllEntitlements{})
	addressService := service.NewAddressService(addressRepo, pageRepo, workspaceRepo)
	resolverService := service.NewResolverService(pageRepo, addressRepo, cfg.BaseHost)
	authService := service.NewAuthService(userRepo, workspaceService)

	// Image storage is optional: without S3 credentials the endpoints report
	// uploads as disabled
	var imageService *service.ImageService
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		assetRepo, err := storage.NewS3AssetRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		imageService = service.NewImageService(assetRepo)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Image storage enabled")
	} else {
		imageService = service.NewImageService(nil)
		log.Warn().Msg("Image storage disabled (no S3 credentials)")
	}

	// WebSocket hub feeds change notifications to connected editors
	hub := websocket.NewHub()
	pageService.SetEventPublisher(hub)
	collabService.SetEventPublisher(hub)
	addressService.SetEventPublisher(hub)

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket JWT validator")
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, pageService)
	pageHandler := handler.NewPageHandler(pageService, accessService, resolverService)
	collabHandler := handler.NewCollabHandler(collabService, accessService, workspaceService)
	addressHandler := handler.NewAddressHandler(addressService, accessService)
	imageHandler := handler.NewImageHandler(imageService, pageService, accessService)
	publicHandler := handler.NewPublicHandler(addressService, resolverService, cfg.BaseHost)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, accessService, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, authHandler, workspaceHandler, pageHandler, collabHandler, addressHandler, imageHandler, publicHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
