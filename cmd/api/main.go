package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cekilis/secret-santa-api/api/swagger"
	"github.com/cekilis/secret-santa-api/internal/handler"
	"github.com/cekilis/secret-santa-api/internal/matching"
	"github.com/cekilis/secret-santa-api/internal/middleware"
	"github.com/cekilis/secret-santa-api/internal/repository"
	"github.com/cekilis/secret-santa-api/internal/service"
	"github.com/cekilis/secret-santa-api/pkg/cache"
	"github.com/cekilis/secret-santa-api/pkg/config"
	"github.com/cekilis/secret-santa-api/pkg/database"
	"github.com/cekilis/secret-santa-api/pkg/jobs"
	"github.com/cekilis/secret-santa-api/pkg/logger"
	"github.com/cekilis/secret-santa-api/pkg/mailer"
	corsmiddleware "github.com/cekilis/secret-santa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cekilis/secret-santa-api/pkg/middleware/requestid"
	"github.com/cekilis/secret-santa-api/pkg/storage"
)

// @title Secret Santa API
// @version 1.0.0
// @description Gift exchange draws with invite links, scheduled execution and email notifications
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, public info cache disabled", "error", err)
		redisClient = nil
	}
	var publicCache *cache.Store
	if redisClient != nil {
		publicCache = cache.NewStore(redisClient)
		defer redisClient.Close() //nolint:errcheck
	}

	var sender mailer.Sender = mailer.NopSender{}
	if cfg.Mail.Enabled {
		ses, err := mailer.NewSES(ctx, cfg.Mail)
		if err != nil {
			logr.Sugar().Fatalw("failed to init ses transport", "error", err)
		}
		sender = ses
	}

	files, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSigner(cfg.Export.Secret, cfg.Export.URLTTL)

	metrics := service.NewMetricsService()
	userRepo := repository.NewUserRepository(db)
	drawRepo := repository.NewDrawRepository(db)

	executionService := service.NewExecutionService(drawRepo, matching.NewEngine(nil), logr, metrics)
	notificationService := service.NewNotificationService(sender, logr, metrics)
	worker := service.NewDrawWorker(executionService, notificationService, logr)

	queue := jobs.NewQueue("draws", worker.Handle, cfg.Queue, logr)
	queue.Start(ctx)
	defer queue.Stop()

	authService := service.NewAuthService(userRepo, sender, cfg.JWT, logr, nil)
	var drawService *service.DrawService
	if publicCache != nil {
		drawService = service.NewDrawService(drawRepo, queue, publicCache, logr, nil)
	} else {
		drawService = service.NewDrawService(drawRepo, queue, nil, logr, nil)
	}
	exportService := service.NewExportService(drawRepo, files, signer, logr)
	sweepService := service.NewSweepService(drawRepo, queue, logr, metrics, cfg.Sweep)

	if cfg.Sweep.Enabled {
		runner := service.NewSweepRunner(sweepService, cfg.Sweep.Interval, nil, logr)
		go runner.Run(ctx)
	}

	go cleanupExports(ctx, files, cfg.Export.FileTTL, logr)

	router := buildRouter(cfg, logr, metrics, authService, drawService, exportService)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func buildRouter(
	cfg *config.Config,
	logr *zap.Logger,
	metrics *service.MetricsService,
	authService *service.AuthService,
	drawService *service.DrawService,
	exportService *service.ExportService,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	authHandler := handler.NewAuthHandler(authService)
	drawHandler := handler.NewDrawHandler(drawService, exportService)
	publicHandler := handler.NewPublicHandler(drawService, exportService)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	draws := api.Group("/draws", middleware.JWT(authService))
	draws.GET("", drawHandler.List)
	draws.POST("/manual", drawHandler.CreateManual)
	draws.POST("/dynamic", drawHandler.CreateDynamic)
	draws.GET("/:id", drawHandler.Detail)
	draws.DELETE("/:id", drawHandler.Cancel)
	draws.PATCH("/:id/schedule", drawHandler.UpdateSchedule)
	draws.POST("/:id/trigger", drawHandler.Trigger)
	draws.POST("/:id/exports", drawHandler.CreateExport)

	api.GET("/join/:code", publicHandler.Info)
	api.POST("/join/:code", publicHandler.Join)
	api.GET("/exports/download", publicHandler.DownloadExport)

	return r
}

func cleanupExports(ctx context.Context, files *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := files.CleanupOlderThan(ttl)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Sugar().Infow("stale exports removed", "count", len(deleted))
			}
		}
	}
}
