package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/application/attachment"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	notificationapp "github.com/taskflow/backend/internal/application/notification"
	projectapp "github.com/taskflow/backend/internal/application/project"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"github.com/taskflow/backend/internal/infrastructure/email"
	"github.com/taskflow/backend/internal/infrastructure/identityprovider"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"github.com/taskflow/backend/internal/infrastructure/persistence"
	"github.com/taskflow/backend/internal/infrastructure/realtime"
	"github.com/taskflow/backend/internal/infrastructure/scheduler"
	"github.com/taskflow/backend/internal/infrastructure/storage"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"github.com/taskflow/backend/internal/infrastructure/webhook"
	"github.com/taskflow/backend/internal/interfaces/http/handler"
	"github.com/taskflow/backend/internal/interfaces/http/middleware"
	"github.com/taskflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log := logger.New(logCfg)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if cfg.Telemetry.LogsEnabled {
		log = logger.New(logCfg, providers.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting taskflow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	metrics, err := telemetry.NewCollaborationMetrics(providers.Meter("taskflow"))
	if err != nil {
		log.Fatal("Failed to register collaboration metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentGorm(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	meetingRepo := persistence.NewGormMeetingRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	adminRequestRepo := persistence.NewGormAdminRequestRepository(db.DB)

	// Real-time hub. Room joins are checked against project visibility.
	hub := realtime.NewHub(
		realtime.OptionsFromConfig(cfg.Realtime),
		projectapp.NewRoomGuard(projectRepo, log),
		metrics,
		log,
	)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		if err := hub.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Realtime hub stopped", zap.Error(err))
		}
	}()

	// External collaborators
	provider := identityprovider.New(cfg.IdentityProvider, log)
	blobs := newBlobStore(rootCtx, cfg, log)
	mailer := newMailer(cfg, log)

	idemStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(rootCtx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idemStore.Close() }()

	jobs := scheduler.NewJobRunner(scheduler.RunnerConfig{
		MaxConcurrent: cfg.Sweep.EmailJobs,
		JobTimeout:    cfg.Sweep.JobTimeout,
	}, log)

	// Application services
	notifier := notificationapp.NewNotifier(notificationRepo, hub, log)
	cleaner := attachment.NewManager(blobs, log)

	taskService := taskapp.NewTaskService(taskapp.TaskServiceDeps{
		Tasks:      taskRepo,
		Activities: activityRepo,
		Projects:   projectRepo,
		Users:      userRepo,
		Notifier:   notifier,
		Mailer:     mailer,
		Runner:     jobs,
		Cleaner:    cleaner,
		Bus:        hub,
		Logger:     log,
	})
	activityService := taskapp.NewActivityService(taskRepo, activityRepo, userRepo, cleaner, hub, log)
	sweepService := taskapp.NewExpirySweepService(taskService, log)

	projectService := projectapp.NewProjectService(projectapp.ProjectServiceDeps{
		Projects: projectRepo,
		Meetings: meetingRepo,
		Users:    userRepo,
		Verifier: provider,
		Purger:   taskService,
		Notifier: notifier,
		Bus:      hub,
		Logger:   log,
	})
	meetingService := projectapp.NewMeetingService(projectRepo, meetingRepo, hub, log)

	notificationService := notificationapp.NewNotificationService(notificationRepo, log)
	inviteService := notificationapp.NewInviteService(taskRepo, activityRepo, notificationRepo, notifier, userRepo, hub, log)

	userService := identityapp.NewUserService(userRepo, provider, hub, log)
	adminActionService := identityapp.NewAdminActionService(adminRequestRepo, userRepo, provider, projectService, hub, log)
	syncService := identityapp.NewWebhookSyncService(userRepo, projectService, adminRequestRepo, provider, idemStore, hub, log)
	syncService.SetIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Webhook.IdemTTL, Enabled: true})

	sweepTrigger := scheduler.NewSweepTrigger(scheduler.SweepTriggerConfig{
		Interval:   cfg.Sweep.Interval,
		RunOnStart: cfg.Sweep.RunOnStart,
		Timeout:    cfg.Sweep.Timeout,
	}, sweepService, metrics, log)
	if cfg.Sweep.Enabled {
		if err := sweepTrigger.Start(rootCtx); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
	}

	// Authentication
	sessions, err := auth.NewSessionVerifier(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to initialize session verifier", zap.Error(err))
	}

	handlers := router.Handlers{
		Tasks:         handler.NewTaskHandler(taskService),
		Activities:    handler.NewActivityHandler(activityService),
		Projects:      handler.NewProjectHandler(projectService, meetingService),
		Notifications: handler.NewNotificationHandler(notificationService, inviteService),
		Users:         handler.NewUserHandler(userService),
		AdminActions:  handler.NewAdminActionHandler(adminActionService),
		Sweep:         handler.NewSweepHandler(sweepTrigger, cfg.Sweep.Token),
		Sockets:       handler.NewSocketHandler(hub, cfg.App.ClientURL),
		Health:        handler.NewHealthHandler(db, hub),
	}
	if verifier, err := webhook.NewVerifier(cfg.Webhook); err != nil {
		log.Warn("Webhook secret not configured, identity webhooks disabled", zap.Error(err))
	} else {
		handlers.Webhooks = handler.NewWebhookHandler(verifier, syncService, metrics, cfg.Webhook.MaxBodySize)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - generate/propagate request ID
	// 2. Recovery - catch panics
	// 3. Logger - access log and request-scoped logger
	// 4. Tracing - server span, error status
	// 5. Metrics - request counters
	// 6. Security, CORS, body limit, rate limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	tracingCfg.Enabled = providers.IsEnabled()
	engine.Use(middleware.TracingWithConfig(tracingCfg))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(providers.Meter("taskflow.http")))

	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	router.RegisterRoutes(engine, handlers, router.Guards{
		Session: middleware.SessionAuth(middleware.SessionAuthConfig{Verifier: sessions, Logger: log}),
		Socket: middleware.SessionAuth(middleware.SessionAuthConfig{
			Verifier:        sessions,
			AllowQueryToken: cfg.Auth.AllowQueryKey,
			Logger:          log,
		}),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Sweep.StopTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	<-hubDone
	if err := sweepTrigger.Stop(ctx); err != nil {
		log.Warn("Sweep trigger did not stop cleanly", zap.Error(err))
	}
	if err := jobs.Stop(ctx); err != nil {
		log.Warn("Background jobs abandoned at shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newBlobStore returns the S3 store, or a store that skips deletions when
// no bucket credentials or endpoint are configured
func newBlobStore(ctx context.Context, cfg *config.Config, log *zap.Logger) attachment.BlobStore {
	if cfg.Storage.Endpoint == "" && cfg.Storage.AccessKeyID == "" && !cfg.App.IsProduction() {
		log.Info("Blob storage not configured, attachment deletes are skipped")
		return storage.DisabledStore{Logger: log}
	}
	store, err := storage.NewS3BlobStore(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize blob storage", zap.Error(err))
	}
	return store
}

func newMailer(cfg *config.Config, log *zap.Logger) taskapp.Mailer {
	if cfg.Email.Host == "" {
		log.Info("SMTP not configured, assignment emails are skipped")
		return email.DisabledMailer{Logger: log}
	}
	return email.NewSMTPMailer(cfg.Email, cfg.App.ClientURL, log)
}
