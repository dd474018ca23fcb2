package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/malkassem/documentcloud/api/swagger"
	"github.com/malkassem/documentcloud/internal/handler"
	"github.com/malkassem/documentcloud/internal/middleware"
	"github.com/malkassem/documentcloud/internal/repository"
	"github.com/malkassem/documentcloud/internal/service"
	"github.com/malkassem/documentcloud/pkg/assets"
	"github.com/malkassem/documentcloud/pkg/cache"
	"github.com/malkassem/documentcloud/pkg/config"
	"github.com/malkassem/documentcloud/pkg/database"
	"github.com/malkassem/documentcloud/pkg/jobs"
	"github.com/malkassem/documentcloud/pkg/logger"
	corsmiddleware "github.com/malkassem/documentcloud/pkg/middleware/cors"
	reqidmiddleware "github.com/malkassem/documentcloud/pkg/middleware/requestid"
)

// @title DocumentCloud Annotation API
// @version 1.0.0
// @description Annotations, comments and note counts for DocumentCloud documents
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheService = service.NewCacheService(nil, metricsService, cfg.Counts.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheService = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsService, cfg.Counts.CacheTTL, logr, true)
	}

	annotationRepo := repository.NewAnnotationRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := service.NewAuthService(accountRepo, nil, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "documentcloud",
	})

	counterWorker := service.NewCounterWorker(annotationRepo, cacheService, logr)
	refreshQueue := jobs.NewQueue("note-counts", counterWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Counts.WorkerConcurrency,
		MaxRetries: cfg.Counts.WorkerRetries,
		Coalesce:   true,
		Logger:     logr,
	})
	refreshQueue.Start(context.Background())

	aggregationService := service.NewAggregationService(service.AggregationServiceParams{
		Repo:    annotationRepo,
		Queue:   refreshQueue,
		Cache:   cacheService,
		Metrics: metricsService,
		Logger:  logr,
		Config:  service.AggregationServiceConfig{CacheTTL: cfg.Counts.CacheTTL},
	})

	annotationService := service.NewAnnotationService(service.AnnotationServiceParams{
		Annotations: annotationRepo,
		Accounts:    accountRepo,
		Documents:   documentRepo,
		Projects:    projectRepo,
		Comments:    commentRepo,
		Refresher:   aggregationService,
		Assets:      assets.NewBuilder(cfg.Assets),
		Logger:      logr,
	})
	exportService := service.NewExportService(annotationService, service.ExportConfig{MaxRows: cfg.Exports.MaxRows}, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authService)
	annotationHandler := handler.NewAnnotationHandler(annotationService, exportService)
	aggregationHandler := handler.NewAggregationHandler(aggregationService, annotationService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/system/stats", metricsHandler.Stats)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.JWT(authService), authHandler.Me)
		}

		annotations := api.Group("/documents/:documentId/annotations")
		{
			annotations.GET("", middleware.OptionalJWT(authService), annotationHandler.List)
			annotations.GET("/export", middleware.OptionalJWT(authService), annotationHandler.Export)
			annotations.GET("/:annotationId", middleware.OptionalJWT(authService), annotationHandler.Get)
			annotations.POST("", middleware.JWT(authService), annotationHandler.Create)
			annotations.PUT("/:annotationId", middleware.JWT(authService), annotationHandler.Update)
			annotations.DELETE("/:annotationId", middleware.JWT(authService), annotationHandler.Delete)
		}

		api.GET("/annotations/counts", middleware.OptionalJWT(authService), aggregationHandler.Counts)
		api.GET("/organizations/public-note-counts", aggregationHandler.OrganizationPublicCounts)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown error", "error", err)
	}
	refreshQueue.Stop()
}
