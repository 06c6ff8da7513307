// Package http exposes the travel request session and the expense claim
// ledger as a JSON API for the portal UI.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics is the HTTP-facing part of the metrics registry
type Metrics interface {
	Handler() http.Handler
	GinMiddleware() gin.HandlerFunc
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MaxUploadBytes  int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "0.0.0.0:8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowedOrigins:  []string{"*"},
		MaxUploadBytes:  10 << 20,
	}
}

// Option configures a Server
type Option func(*Server)

// WithMetrics records request metrics and serves /metrics
func WithMetrics(m Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithExtractionLimiter rate limits the endpoints that call the extraction service
func WithExtractionLimiter(l *limiter.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	trip       TripService
	claim      ClaimService
	metrics    Metrics
	limiter    *limiter.Limiter
	logger     Logger
}

// NewServer creates a new HTTP server for the given session and ledger
func NewServer(config ServerConfig, trip TripService, claim ClaimService, logger Logger, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	s := &Server{
		config: config,
		router: gin.New(),
		trip:   trip,
		claim:  claim,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(s.config.AllowedOrigins) == 0 || containsWildcard(s.config.AllowedOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.config.AllowedOrigins
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	s.router.Use(cors.New(corsCfg))

	if s.metrics != nil {
		s.router.Use(s.metrics.GinMiddleware())
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

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
		)
	}
}

func (s *Server) setupRoutes() {
	th := newTripHandlers(s.trip, s.logger)
	ch := newClaimHandlers(s.claim, s.config.MaxUploadBytes, s.logger)
	extractionLimit := rateLimit(s.limiter, s.logger)

	s.router.GET("/health", healthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api/v1")

	trip := api.Group("/trip")
	{
		trip.GET("", th.GetState)
		trip.PATCH("/fields/:field", th.EditField)
		trip.PUT("/section", th.SetSection)
		trip.POST("/attachments", th.AddAttachment)
		trip.POST("/extract", extractionLimit, th.Extract)
		trip.POST("/draft", th.SaveDraft)
		trip.POST("/restore", th.Restore)
		trip.POST("/submit", th.Submit)
		trip.POST("/reset", th.Reset)
		trip.GET("/submission", th.LastSubmission)
		trip.DELETE("/notices/:id", th.DismissNotice)
	}

	claim := api.Group("/claim")
	{
		claim.GET("/items", ch.ListItems)
		claim.POST("/items", ch.AddItem)
		claim.PATCH("/items/:id", ch.UpdateItem)
		claim.POST("/items/:id/commit", ch.CommitItem)
		claim.DELETE("/items/:id", ch.RemoveItem)
		claim.POST("/receipts", extractionLimit, ch.IngestReceipt)
		claim.GET("/categories", ch.ListCategories)
		claim.POST("/categories", ch.RegisterCategory)
		claim.GET("/summary", ch.GetSummary)
		claim.POST("/summary", extractionLimit, ch.Summarize)
		claim.GET("/export", ch.Export)
		claim.GET("/notices", ch.ListNotices)
		claim.DELETE("/notices/:id", ch.DismissNotice)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", s.config.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
