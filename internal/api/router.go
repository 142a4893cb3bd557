package api

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/inboxsight/inboxsight-backend/internal/api/handlers"
	"github.com/inboxsight/inboxsight-backend/internal/api/middleware"
	"github.com/inboxsight/inboxsight-backend/internal/live"
	"github.com/inboxsight/inboxsight-backend/internal/logger"
	"github.com/inboxsight/inboxsight-backend/internal/repository"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB            *gorm.DB
	Hub           *live.Hub
	Logger        *slog.Logger
	PublicBaseURL string        // Origin prefixed to beacon URLs
	DedupWindow   time.Duration // Open dedup window (0 = 60s default)
	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      float64  // Requests per second (0 = disabled)
	RateBurst      int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	dedupWindow := cfg.DedupWindow
	if dedupWindow == 0 {
		dedupWindow = 60 * time.Second
	}

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - Set environment variable if origins provided in config
	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	// 4. Rate limiting (the beacon route is exempt inside the middleware)
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(cfg.RateLimit, cfg.RateBurst, cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	messageRepo := repository.NewMessageRepository(cfg.DB)
	openRepo := repository.NewOpenRepository(cfg.DB)

	// Initialize handlers
	securityLog := logger.NewSecurityLogger()
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	messageHandler := handlers.NewMessageHandler(messageRepo, cfg.PublicBaseURL)
	beaconHandler := handlers.NewBeaconHandler(openRepo, cfg.Hub, securityLog, cfg.Logger, dedupWindow)
	statsHandler := handlers.NewStatsHandler(messageRepo)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Beacon route: open to the world, always answers 200 with the pixel
	e.GET("/track/:id", beaconHandler.Fetch)

	// Live open-event feed
	if cfg.Hub != nil {
		wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Logger)
		e.GET("/ws", wsHandler.Connect)
	}

	// API routes
	api := e.Group("/api")

	// Apply API key authentication if enabled
	if cfg.APIKey != "" {
		os.Setenv("API_KEY", cfg.APIKey)
	}
	api.Use(middleware.APIKeyAuth(cfg.Logger))

	// Tracked message routes
	emails := api.Group("/emails")
	emails.POST("", messageHandler.Create)
	emails.GET("", messageHandler.List)
	emails.GET("/:id", messageHandler.Get)

	// Stats route
	api.GET("/stats", statsHandler.Get)

	return e
}
