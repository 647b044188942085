package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/config"
	"github.com/tabular-review/gateway/handler"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/pkg/logger"
	"github.com/tabular-review/gateway/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded",
		"environment", cfg.Environment,
		"backend_url", cfg.Backend.URL,
	)

	if cfg.Auth.JWTSecret == "" {
		slog.Error("auth jwt secret is not configured")
		os.Exit(1)
	}

	// Upstream API client
	backend := service.NewBackend(&cfg.Backend)

	// CSV export reads the review tables directly; optional, since the
	// gateway runs without it in environments that disable export.
	var exporter *service.Exporter
	if cfg.Database.URL != "" {
		exporter, err = service.NewExporter(context.Background(), cfg.Database.URL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer exporter.Close()
		slog.Info("database connection established")
	}

	// Optional export archival to object storage
	var archive *service.Archive
	if cfg.Archive.Enabled {
		archive, err = service.NewArchive(&cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize archive storage", "error", err)
			os.Exit(1)
		}
		if err := archive.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
		slog.Info("export archival enabled", "bucket", cfg.Archive.Bucket)
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(backend)
	dashboardHandler := handler.NewDashboardHandler(backend)
	documentsHandler := handler.NewDocumentsHandler(backend)
	filesHandler := handler.NewFilesHandler(backend)
	reviewsHandler := handler.NewReviewsHandler(backend)
	uploadHandler := handler.NewUploadHandler(backend)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())      // Request ID for tracing
	router.Use(middleware.Recovery())       // Panic recovery
	router.Use(middleware.RequestLogger())  // Access logging
	router.Use(corsMiddleware())            // CORS
	router.Use(noCacheMiddleware())         // API responses are never cached
	router.Use(middleware.RateLimit(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.Auth(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/dashboard", dashboardHandler.Get)
		protected.GET("/documents", documentsHandler.Get)
		protected.GET("/files", filesHandler.List)
		protected.POST("/files/upload", uploadHandler.Upload)
		protected.GET("/reviews", reviewsHandler.List)
		protected.POST("/reviews/:id/columns", reviewsHandler.CreateColumn)

		if exporter != nil {
			var archiver handler.Archiver
			if archive != nil {
				archiver = archive
			}
			exportHandler := handler.NewExportHandler(exporter, archiver)
			protected.GET("/reviews/:id/export", exportHandler.Download)
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  320 * time.Second, // above the upload forwarding timeout
		WriteTimeout: 320 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// noCacheMiddleware prevents intermediaries from caching aggregated data
func noCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
