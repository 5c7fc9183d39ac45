// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"startdrive_backend/internal/auth"
	"startdrive_backend/internal/car"
	"startdrive_backend/internal/chat"
	"startdrive_backend/internal/config"
	"startdrive_backend/internal/favorite"
	"startdrive_backend/internal/jobs"
	"startdrive_backend/internal/middleware"
	"startdrive_backend/internal/notification"
	platformElasticsearch "startdrive_backend/internal/platform/elasticsearch"
	"startdrive_backend/internal/shared"
	"startdrive_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Exposed for startup tasks in main (migration, index creation).
	DB        *gorm.DB
	ESClient  *platformElasticsearch.ESClientWrapper
	AppLogger *zap.Logger

	// Handlers
	userHandler         *user.Handler
	authHandler         *auth.Handler
	carHandler          *car.Handler
	favoriteHandler     *favorite.Handler
	chatHandler         *chat.Handler
	notificationHandler *notification.Handler

	// Jobs
	carSyncJob *jobs.CarSyncJob

	// Middleware instances
	authMW gin.HandlerFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	authHandler *auth.Handler,
	carHandler *car.Handler,
	favoriteHandler *favorite.Handler,
	chatHandler *chat.Handler,
	notificationHandler *notification.Handler,
	carSyncJob *jobs.CarSyncJob,
	tokenService shared.TokenService,
	blocklist auth.TokenBlocklistService,
	db *gorm.DB,
	esClient *platformElasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokenService, blocklist, logger.Named("AuthMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "StartDrive API is healthy!"})
	})

	// Uploaded listing images are served straight from disk.
	router.Static("/images", cfg.ImageStoragePath)

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1, authMW)
	userHandler.RegisterRoutes(v1, authMW)
	carHandler.RegisterRoutes(v1, authMW)
	favoriteHandler.RegisterRoutes(v1, authMW)
	chatHandler.RegisterRoutes(v1, authMW)
	notificationHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:          httpServer,
		router:              router,
		cfg:                 cfg,
		logger:              logger,
		DB:                  db,
		ESClient:            esClient,
		AppLogger:           logger,
		userHandler:         userHandler,
		authHandler:         authHandler,
		carHandler:          carHandler,
		favoriteHandler:     favoriteHandler,
		chatHandler:         chatHandler,
		notificationHandler: notificationHandler,
		carSyncJob:          carSyncJob,
		authMW:              authMW,
	}, nil
}

func (s *Server) Start() error {
	if s.carSyncJob != nil {
		if err := s.carSyncJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start car sync job", zap.Error(err))
		}
	} else {
		s.logger.Info("Car sync job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.carSyncJob != nil {
		s.carSyncJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
