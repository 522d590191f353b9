package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/config"
	"github.com/Ta-h-a/Hack2SkillFrontend/handler"
	"github.com/Ta-h-a/Hack2SkillFrontend/middleware"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
	"github.com/Ta-h-a/Hack2SkillFrontend/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env before config so env overrides apply
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "engine", cfg.Engine.BaseURL)

	// Initialize services
	engineSvc := service.NewEngineService(&cfg.Engine)

	var archiveSvc *service.ArchiveService
	if cfg.Minio.Enabled() {
		archiveSvc, err = service.NewArchiveService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize archive service", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
		slog.Info("document archive enabled", "bucket", cfg.Minio.Bucket)
	}

	var historyCache *service.ChatHistoryCache
	if cfg.Redis.Enabled() {
		redisClient, err := service.NewRedisClient(context.Background(), &cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		historyCache = service.NewChatHistoryCache(redisClient, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
		slog.Info("chat history cache enabled", "addr", cfg.Redis.Addr)
	}

	service.InitDocumentStore(&cfg.Store)
	store := service.GetDocumentStore()
	synchronizer := service.NewSynchronizer(engineSvc, store, &cfg.Engine)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	documentHandler := handler.NewDocumentHandler(engineSvc, store, synchronizer, archiveSvc, cfg.Upload.MaxSizeMB)
	clauseHandler := handler.NewClauseHandler(engineSvc, store)
	chatHandler := handler.NewChatHandler(engineSvc, store, historyCache)
	videoHandler := handler.NewVideoHandler(engineSvc, store, synchronizer)
	exportHandler := handler.NewExportHandler(engineSvc, store, archiveSvc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Archive-URL", "Content-Disposition"},
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimit(100, time.Minute)) // 100 requests per minute per IP

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
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/documents/upload", documentHandler.Upload)
		protected.GET("/documents", documentHandler.List)
		protected.GET("/documents/:id", documentHandler.Get)
		protected.GET("/documents/:id/status", documentHandler.GetStatus)
		protected.DELETE("/documents/:id", documentHandler.Delete)

		protected.GET("/documents/:id/clauses/:clauseId", clauseHandler.GetDetail)
		protected.POST("/documents/:id/ghosts", clauseHandler.InsertGhosts)
		protected.POST("/documents/:id/clauses/:clauseId/negotiate", clauseHandler.Negotiate)
		protected.POST("/documents/:id/clauses/:clauseId/accept", clauseHandler.AcceptNegotiation)

		protected.POST("/documents/:id/export/redline", exportHandler.Redline)

		protected.POST("/documents/:id/chat", chatHandler.Send)
		protected.GET("/sessions", chatHandler.ListSessions)
		protected.GET("/sessions/:sessionId", chatHandler.GetHistory)
		protected.DELETE("/sessions/:sessionId", chatHandler.DeleteSession)

		protected.POST("/videogen/start", videoHandler.Start)
		protected.GET("/videogen/status/:jobId", videoHandler.GetStatus)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
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

	// Stop background watchers before exit
	synchronizer.Shutdown()

	slog.Info("server exited gracefully")
}
