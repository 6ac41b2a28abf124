package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/messmate/backend/internal/application/identity"
	appmess "github.com/messmate/backend/internal/application/mess"
	appmessaging "github.com/messmate/backend/internal/application/messaging"
	appsettlement "github.com/messmate/backend/internal/application/settlement"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/auth"
	"github.com/messmate/backend/internal/infrastructure/cache"
	"github.com/messmate/backend/internal/infrastructure/config"
	"github.com/messmate/backend/internal/infrastructure/event"
	"github.com/messmate/backend/internal/infrastructure/logger"
	"github.com/messmate/backend/internal/infrastructure/persistence"
	"github.com/messmate/backend/internal/infrastructure/scheduler"
	"github.com/messmate/backend/internal/infrastructure/storage"
	"github.com/messmate/backend/internal/infrastructure/telemetry"
	"github.com/messmate/backend/internal/interfaces/http/handler"
	"github.com/messmate/backend/internal/interfaces/http/middleware"
	"github.com/messmate/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	telCfg := telemetryConfig(cfg.Telemetry)

	// The OTel log bridge needs a logger to report its own setup, so the
	// final logger is built once the provider exists.
	logProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting MessMate backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("settlement_timezone", cfg.Settlement.Timezone),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telCfg, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	meter := meterProvider.Meter("github.com/messmate/backend")
	settlementMetrics, err := telemetry.NewSettlementMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create settlement metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, telCfg, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Locks, idempotency marks and the token blacklist
	backends, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize coordination stores", zap.Error(err))
	}
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if backends.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(backends.Client)
	}

	objects := archiveStorage(ctx, cfg, log)

	// Repositories
	messRepo := persistence.NewGormMessRepository(db.DB)
	memberRepo := persistence.NewGormMemberRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	archiveRepo := persistence.NewGormArchiveRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	settlementStore := persistence.NewGormSettlementStore(db.DB)
	ledgerRepos := appmess.LedgerRepositories{
		Meals:           persistence.NewGormMealRecordRepository(db.DB),
		Bazar:           persistence.NewGormBazarRepository(db.DB),
		Deposits:        persistence.NewGormDepositRepository(db.DB),
		AdditionalCosts: persistence.NewGormAdditionalCostRepository(db.DB),
	}

	eventBus := event.NewInMemoryEventBus(log)
	places := cfg.Settlement.DisplayPrecision

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	sessions := appidentity.NewSessionResolver(accountRepo, memberRepo, messRepo, log)
	authService := appidentity.NewAuthService(accountRepo, sessions, jwtService, blacklist,
		appidentity.DefaultAuthServiceConfig(), log)
	messService := appmess.NewMessService(messRepo, memberRepo, accountRepo,
		persistence.NewGormOnboardingScope(db.DB), eventBus, log)
	memberService := appmess.NewMemberService(memberRepo, accountRepo, eventBus, log)
	ledgerService := appmess.NewLedgerService(messRepo, memberRepo, ledgerRepos, log)
	balanceService := appmess.NewBalanceService(messRepo, settlementStore, places, log)
	rolloverService := appsettlement.NewRolloverService(messRepo, settlementStore, backends.Locker, eventBus,
		appsettlement.RolloverConfig{
			LockTTL:  cfg.Settlement.LockTTL,
			Location: cfg.SettlementLocation(),
		},
		log,
		appsettlement.WithMetrics(settlementMetrics),
	)
	archiveService := appsettlement.NewArchiveService(archiveRepo, objects, cfg.Storage.Prefix,
		cfg.Storage.PresignExpiration, places, log)
	messageService := appmessaging.NewMessageService(messageRepo, persistence.NewGormDirectory(db.DB),
		settlementMetrics, log)

	if err := appidentity.EnsureBootstrapAdmin(ctx, accountRepo,
		cfg.App.BootstrapAdminEmail, cfg.App.BootstrapAdminPassword, log); err != nil {
		log.Fatal("Failed to create bootstrap admin", zap.Error(err))
	}

	// Rollover side effects run once per archive even when an event is redelivered
	eventHandlers := []*event.IdempotentHandler{
		subscribe(eventBus, backends.Idempotency, log, "settlement-notice",
			appmessaging.NewSettlementNotifier(messageService, places, log)),
	}
	if objects != nil {
		eventHandlers = append(eventHandlers, subscribe(eventBus, backends.Idempotency, log, "archive-export",
			appsettlement.NewArchiveExportHandler(archiveRepo, objects, cfg.Storage.Prefix, log)))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Monthly rollover scheduler
	var (
		jobScheduler *scheduler.Scheduler
		cronTrigger  *scheduler.CronTrigger
	)
	if cfg.Settlement.Enabled {
		jobScheduler, cronTrigger, err = startRolloverScheduler(ctx, cfg, rolloverService, messRepo, log)
		if err != nil {
			log.Fatal("Failed to start rollover scheduler", zap.Error(err))
		}
	} else {
		log.Info("Rollover scheduler disabled; rollovers run only on request")
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	jwtCfg := middleware.DefaultJWTConfig(jwtService, sessions)
	jwtCfg.TokenBlacklist = blacklist
	jwtCfg.Logger = log

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(meter, log),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.SessionAttributes(),
		middleware.Profiling(profiler.IsEnabled()),
	)

	var limiters []*middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		global := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		limiters = append(limiters, global)
		engine.Use(middleware.RateLimitByKey(global, middleware.CallerKey))
	}
	login := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	limiters = append(limiters, login)

	checks := map[string]handler.HealthChecker{
		"database": db,
	}
	if backends.Client != nil {
		checks["redis"] = handler.HealthCheckFunc(func(ctx context.Context) error {
			return backends.Client.Ping(ctx).Err()
		})
	}

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Mess:       handler.NewMessHandler(messService),
		Member:     handler.NewMemberHandler(memberService),
		Ledger:     handler.NewLedgerHandler(ledgerService),
		Balance:    handler.NewBalanceHandler(balanceService),
		Settlement: handler.NewSettlementHandler(rolloverService, archiveService),
		Message:    handler.NewMessageHandler(messageService),
		System:     handler.NewSystemHandler(telemetry.ServiceVersion, checks),
	}
	router.NewRouter(engine).
		Register(router.APIGroups(handlers, router.Guards{
			LoginRateLimit: middleware.RateLimit(login),
		})...).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for _, l := range limiters {
		l.Stop()
	}
	if cronTrigger != nil {
		if err := cronTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping rollover scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	for _, h := range eventHandlers {
		stats := h.Stats()
		log.Info("Event handler stats",
			zap.String("scope", h.Scope()),
			zap.Int64("processed", stats.Processed),
			zap.Int64("duplicates", stats.Duplicates),
			zap.Int64("failed", stats.Failed))
	}
	if err := backends.Close(); err != nil {
		log.Error("Error closing coordination stores", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	_ = logProvider.Shutdown(shutdownCtx)
}

func telemetryConfig(c config.TelemetryConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:           c.Enabled,
		CollectorEndpoint: c.CollectorEndpoint,
		SamplingRatio:     c.SamplingRatio,
		ServiceName:       c.ServiceName,
		Insecure:          c.Insecure,
		MetricsEnabled:    c.MetricsEnabled,
		MetricsInterval:   c.MetricsInterval,
		LogsEnabled:       c.LogsEnabled,
		DBTraceEnabled:    c.DBTraceEnabled,
		DBSlowQueryThresh: c.DBSlowQueryThresh,
		ProfilingEnabled:  c.ProfilingEnabled,
		PyroscopeEndpoint: c.PyroscopeEndpoint,
	}
}

// archiveStorage returns where archive exports are written. Outside
// production a disabled bucket falls back to process memory; in production
// exports are then unavailable.
func archiveStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) appsettlement.ObjectStorage {
	if !cfg.Storage.Enabled {
		if cfg.IsProduction() {
			log.Warn("Archive export storage disabled")
			return nil
		}
		log.Info("Archive exports kept in memory")
		return storage.NewMemoryObjectStorage()
	}

	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Fatal("Failed to initialize archive storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Fatal("Archive bucket is not reachable", zap.Error(err), zap.String("bucket", s3.GetBucket()))
	}
	return s3
}

func subscribe(bus *event.InMemoryEventBus, store shared.IdempotencyStore, log *zap.Logger, scope string, h shared.EventHandler) *event.IdempotentHandler {
	wrapped := event.NewIdempotentHandler(h, store, log, event.WithIdempotencyKey(scope, event.ByEventID))
	bus.Subscribe(wrapped, wrapped.EventTypes()...)
	return wrapped
}

func startRolloverScheduler(
	ctx context.Context,
	cfg *config.Config,
	runner scheduler.RolloverRunner,
	tenants scheduler.TenantProvider,
	log *zap.Logger,
) (*scheduler.Scheduler, *scheduler.CronTrigger, error) {
	schedule, err := scheduler.ParseMonthlySchedule(cfg.Settlement.CronSchedule)
	if err != nil {
		return nil, nil, err
	}

	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.MaxConcurrentJobs = cfg.Settlement.MaxConcurrentJobs
	schedCfg.JobTimeout = cfg.Settlement.JobTimeout
	schedCfg.RetryAttempts = cfg.Settlement.RetryAttempts
	schedCfg.RetryDelay = cfg.Settlement.RetryDelay

	jobs := scheduler.NewScheduler(schedCfg, scheduler.NewRolloverExecutor(runner, log), log)
	if err := jobs.Start(ctx); err != nil {
		return nil, nil, err
	}

	trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		Schedule:      schedule,
		Location:      cfg.SettlementLocation(),
		CheckInterval: cfg.Settlement.CheckInterval,
	}, jobs, tenants, log)
	if err := trigger.Start(ctx); err != nil {
		_ = jobs.Stop(ctx)
		return nil, nil, err
	}

	log.Info("Rollover scheduler started",
		zap.String("schedule", schedule.String()),
		zap.Time("next_run_at", trigger.NextRunAt()),
	)
	return jobs, trigger, nil
}
