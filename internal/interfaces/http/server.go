// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/foundry-fichas/internal/application/service"
	"github.com/garyjia/foundry-fichas/internal/application/workflow"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxUploadBytes bounds a multipart image upload request
	MaxUploadBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  64 << 20,
	}
}

// NotificationInbox is the per-user side of the notification service
type NotificationInbox interface {
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// Services groups the application services the handlers call
type Services struct {
	Fichas        service.FichaService
	Gallery       service.GalleryService
	Engine        workflow.Engine
	Dashboard     service.DashboardService
	Notifications NotificationInbox
	Reports       service.ReportService

	// Health reports component status for /health; nil reports healthy
	Health func() (healthy bool, components interface{})
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(services, config.MaxUploadBytes, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_id", c.GetHeader(HeaderUserID),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api", actorMiddleware())
	{
		api.GET("/stages", h.ListStages)
		api.GET("/rejection-reasons", h.ListRejectionReasons)

		fichas := api.Group("/fichas")
		{
			fichas.GET("", h.ListFichas)
			fichas.POST("", h.CreateFicha)
			fichas.GET("/kanban", h.Kanban)
			fichas.GET("/overdue", h.ListOverdue)
			fichas.GET("/approved", h.ListApproved)
			fichas.GET("/rejected", h.ListRejected)
			fichas.GET("/code/:code", h.GetFichaByCode)

			fichas.GET("/:id", h.GetFicha)
			fichas.PUT("/:id", h.UpdateFicha)
			fichas.DELETE("/:id", requirePrivilege(entity.PrivilegeAdministrator), h.DeleteFicha)
			fichas.POST("/:id/move",
				requirePrivilege(entity.PrivilegeAdministrator, entity.PrivilegeElevated), h.MoveFicha)
			fichas.PUT("/:id/real-data", h.UpdateRealData)
			fichas.POST("/:id/reject",
				requirePrivilege(entity.PrivilegeAdministrator, entity.PrivilegeElevated), h.RejectFicha)
			fichas.POST("/:id/reject-final",
				requirePrivilege(entity.PrivilegeAdministrator, entity.PrivilegeElevated), h.RejectFichaFinal)
			fichas.POST("/:id/images", h.UploadRejectionImages)
			fichas.GET("/:id/images/:imageID", h.DownloadRejectionImage)
			fichas.GET("/:id/gallery", h.ListGallery)
			fichas.POST("/:id/gallery", h.UploadGalleryImage)
			fichas.GET("/:id/gallery/:imageID", h.DownloadGalleryImage)
			fichas.DELETE("/:id/gallery/:imageID",
				requirePrivilege(entity.PrivilegeAdministrator, entity.PrivilegeElevated), h.DeleteGalleryImage)
			fichas.GET("/:id/movements", h.ListMovements)
			fichas.GET("/:id/report.xlsx", h.DownloadReport)
		}

		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/summary", h.DashboardSummary)
			dashboard.GET("/stages", h.DashboardStages)
			dashboard.GET("/monthly", h.DashboardMonthly)
			dashboard.GET("/recent", h.DashboardRecent)
			dashboard.GET("/upcoming", h.DashboardUpcoming)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
			notifications.POST("/:id/read", h.MarkNotificationRead)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
