package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kineticfit/booking-api/api/swagger"
	"github.com/kineticfit/booking-api/internal/handler"
	"github.com/kineticfit/booking-api/internal/middleware"
	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/internal/repository"
	"github.com/kineticfit/booking-api/internal/service"
	"github.com/kineticfit/booking-api/pkg/cache"
	"github.com/kineticfit/booking-api/pkg/config"
	"github.com/kineticfit/booking-api/pkg/database"
	"github.com/kineticfit/booking-api/pkg/export"
	"github.com/kineticfit/booking-api/pkg/jobs"
	"github.com/kineticfit/booking-api/pkg/logger"
	corsmiddleware "github.com/kineticfit/booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kineticfit/booking-api/pkg/middleware/requestid"
	"github.com/kineticfit/booking-api/pkg/storage"
)

// @title KineticFit Booking API
// @version 1.0.0
// @description Session scheduling and conflict resolution core for personal training studios
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
	sugar := logr.Sugar()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		sugar.Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled)
	}

	policy, err := models.ParseCancellationPolicy(cfg.Cancellation.PolicyTable, cfg.Cancellation.LateFeeAmount)
	if err != nil {
		sugar.Fatalw("invalid cancellation policy table", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher := service.NewEventPublisher(
		&service.LoggingNotificationSink{Logger: logr},
		&service.LoggingPaymentSink{Logger: logr},
		jobs.QueueConfig{
			Workers:    cfg.Events.Workers,
			BufferSize: cfg.Events.BufferSize,
			MaxRetries: cfg.Events.MaxRetries,
			RetryDelay: cfg.Events.RetryDelay,
			Logger:     logr,
		},
		logr,
	)
	publisher.Start(ctx)
	defer publisher.Stop()

	sessionRepo := repository.NewSessionRepository(db)
	sessionTypeRepo := repository.NewSessionTypeRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheSvc, cfg.Availability.CacheTTL, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, sessionTypeRepo, creditRepo, availabilitySvc, publisher, cfg.Booking, validate, logr)
	cancellationSvc := service.NewCancellationService(sessionRepo, sessionTypeRepo, creditRepo, policy, publisher, validate, logr)
	attendanceSvc := service.NewAttendanceService(sessionRepo, publisher, validate, logr)
	sessionTypeSvc := service.NewSessionTypeService(sessionTypeRepo, validate, logr)
	creditSvc := service.NewCreditService(creditRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			sugar.Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(sessionRepo, sessionTypeRepo, exportStorage, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					removed, err := exportSvc.Cleanup(cfg.Exports.SignedURLTTL)
					if err != nil {
						sugar.Warnw("export cleanup failed", "error", err)
					} else if len(removed) > 0 {
						sugar.Infow("expired exports removed", "count", len(removed))
					}
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc, metrics)
	cancellationHandler := handler.NewCancellationHandler(cancellationSvc, metrics)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	sessionTypeHandler := handler.NewSessionTypeHandler(sessionTypeSvc)
	creditHandler := handler.NewCreditHandler(creditSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	sessions := api.Group("/sessions", middleware.JWT(authSvc))
	{
		sessions.GET("", sessionHandler.List)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.POST("", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionSessionCreate, "sessions"), sessionHandler.Create)
		sessions.POST("/recurring", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionSessionCreate, "sessions"), sessionHandler.CreateRecurring)
		sessions.POST("/open-slots", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionSessionCreate, "sessions"), sessionHandler.PublishOpenSlots)
		sessions.POST("/:id/claim", middleware.RBAC("CLIENT"),
			middleware.Audit(userRepo, models.AuditActionSessionCreate, "sessions"), sessionHandler.Claim)
		sessions.PUT("/:id/reschedule", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionSessionReschedule, "sessions"), sessionHandler.Reschedule)
		sessions.PUT("/:id/status", middleware.RBAC("ADMIN", "TRAINER"), sessionHandler.UpdateStatus)
		sessions.POST("/:id/cancel",
			middleware.Audit(userRepo, models.AuditActionSessionCancel, "sessions"), cancellationHandler.Cancel)
		sessions.PUT("/:id/cancellation/review", middleware.RBAC("ADMIN"),
			middleware.Audit(userRepo, models.AuditActionCancellationReview, "sessions"), cancellationHandler.Review)
		sessions.POST("/:id/check-in", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionAttendanceRecord, "sessions"), attendanceHandler.CheckIn)
		sessions.POST("/:id/check-out", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionAttendanceRecord, "sessions"), attendanceHandler.CheckOut)
		sessions.POST("/:id/no-show", middleware.RBAC("ADMIN", "TRAINER"),
			middleware.Audit(userRepo, models.AuditActionAttendanceRecord, "sessions"), attendanceHandler.NoShow)
	}

	api.GET("/cancellations/pending", middleware.JWT(authSvc), middleware.RBAC("ADMIN"), cancellationHandler.ListPending)

	trainers := api.Group("/trainers", middleware.JWT(authSvc))
	{
		trainers.GET("/:trainerId/availability", availabilityHandler.ListBlocks)
		trainers.GET("/:trainerId/availability/resolved", availabilityHandler.Resolve)
		trainers.POST("/:trainerId/availability", middleware.RBAC("ADMIN", "TRAINER"), availabilityHandler.CreateBlock)
		trainers.DELETE("/:trainerId/availability/:blockId", middleware.RBAC("ADMIN", "TRAINER"), availabilityHandler.DeleteBlock)
	}

	types := api.Group("/session-types", middleware.JWT(authSvc))
	{
		types.GET("", sessionTypeHandler.List)
		types.GET("/:id", sessionTypeHandler.Get)
		types.POST("", middleware.RBAC("ADMIN"), sessionTypeHandler.Create)
		types.PUT("/:id", middleware.RBAC("ADMIN"), sessionTypeHandler.Update)
		types.DELETE("/:id", middleware.RBAC("ADMIN"), sessionTypeHandler.Delete)
	}

	clients := api.Group("/clients", middleware.JWT(authSvc))
	{
		clients.GET("/:userId/credits", creditHandler.Balance)
		clients.POST("/:userId/credits", middleware.RBAC("ADMIN"), creditHandler.Grant)
	}

	if cfg.Exports.Enabled {
		exports := api.Group("/exports")
		{
			exports.POST("/schedule", middleware.JWT(authSvc), middleware.RBAC("ADMIN", "TRAINER"), exportHandler.Generate)
			exports.GET("/:token", middleware.OptionalJWT(authSvc), exportHandler.Download)
		}
	}

	api.GET("/metrics/snapshot", middleware.JWT(authSvc), middleware.RBAC("ADMIN"), metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
