// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/infrastructure/database/redis"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/handlers"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/middleware"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/routes"
	"github.com/your-org/food-ordering-backend/internal/pkg/auth"
	"github.com/your-org/food-ordering-backend/internal/pkg/response"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	startedAt   time.Time
}

// NewServer builds the engine with middleware and routes. A nil redisClient
// disables rate limiting, the cart count cache and idempotency keys.
func NewServer(cfg *config.Config, deps routes.Dependencies, redisClient *redis.Client) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if redisClient != nil {
		if deps.CountCache == nil {
			deps.CountCache = redis.NewCartCountCache(redisClient, cfg.Checkout.CartCountTTL)
		}
		if deps.Idempotency == nil {
			deps.Idempotency = redis.NewIdempotencyStore(redisClient, cfg.Checkout.IdempotencyTTL)
		}
	}

	s := &Server{
		config:      cfg,
		gin:         gin.New(),
		db:          deps.DB,
		redisClient: redisClient,
		startedAt:   time.Now(),
	}
	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	s.setupMiddleware()
	s.setupRoutes(routes.NewHandlers(deps))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves HTTP until Stop is called
func (s *Server) Start() error {
	logrus.WithField("port", s.config.Server.Port).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logrus.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	logrus.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(logrus.StandardLogger()))
	s.gin.Use(middleware.Metrics())
	s.gin.Use(middleware.Tracing())
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())
	if s.redisClient != nil && s.config.Security.RateLimitPerMinute > 0 {
		limiter := redis.NewRateLimiter(s.redisClient, s.config.Security.RateLimitPerMinute, time.Minute)
		s.gin.Use(middleware.RateLimit(limiter))
	}
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes(h *routes.Handlers) {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	s.gin.GET(s.config.Telemetry.MetricsPath, gin.WrapH(promhttp.Handler()))

	api := s.gin.Group("/api")
	routes.SetupRoutes(api, h, auth.NewJWTManager(s.config))

	s.gin.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "Route not found")
	})
}

// healthCheck pings the database and Redis
func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "unhealthy"
		healthy = false
		logrus.WithError(err).Warn("Database health check failed")
	} else {
		checks["database"] = "healthy"
	}

	if s.redisClient != nil {
		if err := s.redisClient.Health(ctx); err != nil {
			checks["redis"] = "unhealthy"
			healthy = false
			logrus.WithError(err).Warn("Redis health check failed")
		} else {
			checks["redis"] = "healthy"
		}
	}

	body := gin.H{
		"checks":      checks,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	}
	if !healthy {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Message: "Service unhealthy",
			Body:    body,
			Status:  http.StatusServiceUnavailable,
		})
		return
	}
	response.OK(c, "Service healthy", body)
}

// readinessCheck reports that the process accepts traffic
func (s *Server) readinessCheck(c *gin.Context) {
	response.OK(c, "Service ready", gin.H{
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
