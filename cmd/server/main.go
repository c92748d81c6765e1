package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appallowance "github.com/dairy/backend/internal/application/allowance"
	appinv "github.com/dairy/backend/internal/application/inventory"
	apprecon "github.com/dairy/backend/internal/application/reconciliation"
	appsales "github.com/dairy/backend/internal/application/sales"
	apptruck "github.com/dairy/backend/internal/application/truckload"
	"github.com/dairy/backend/internal/infrastructure/cache"
	"github.com/dairy/backend/internal/infrastructure/config"
	"github.com/dairy/backend/internal/infrastructure/event"
	"github.com/dairy/backend/internal/infrastructure/logger"
	"github.com/dairy/backend/internal/infrastructure/persistence"
	"github.com/dairy/backend/internal/infrastructure/scheduler"
	"github.com/dairy/backend/internal/infrastructure/storage"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/dairy/backend/internal/interfaces/http/handler"
	"github.com/dairy/backend/internal/interfaces/http/middleware"
	"github.com/dairy/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/dairy/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Dairy Distribution API
//	@version		1.0
//	@description	Batch ledger, truck loads, shop sales and daily reconciliation for a dairy depot

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	UserID
//	@in							header
//	@name						X-User-ID
//	@description				Caller identity. The caller's role travels in X-User-Role.

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// OpenTelemetry providers. Each one is a no-op when telemetry is disabled.
	otelCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	logLevel, _ := logger.ParseLevel(cfg.Log.Level)
	log = telemetry.BridgeLogger(log, logsProvider, logLevel)
	defer func() {
		_ = logger.Sync(log)
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Failed to stop profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting dairy backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Repositories and the transaction scope
	scope := persistence.NewGormTransactionScope(db.DB)
	repos := persistence.NewRepositories(db.DB)

	// Domain services
	ledger := appinv.NewLedger()
	allocator := appinv.NewAllocator(ledger, appinv.AllocatorOptions{
		ExcludeExpired: cfg.Inventory.ExcludeExpiredBatches,
	})

	deliveryService := appinv.NewDeliveryService(scope, repos, ledger, log)
	ledgerService := appinv.NewLedgerService(scope, repos, ledger, log)
	ledgerService.SetPageSize(cfg.Inventory.BalancePageSize)
	truckLoadService := apptruck.NewService(scope, repos, ledger, allocator, log)
	saleService := appsales.NewService(scope, repos, allocator, log)
	allowanceService := appallowance.NewService(scope, repos, log)
	reconciliationService := apprecon.NewService(scope, repos, ledger, log)
	reconciliationService.SetDiscrepancyTolerance(cfg.Reconciliation.DiscrepancyTolerance)

	reportCache, closeReportCache, err := cache.NewReportCacheFactory(
		cfg.Redis,
		cfg.Reconciliation.ReportCacheTTL,
		cache.WithLogger(log),
	).CreateCache(ctx)
	if err != nil {
		log.Fatal("Failed to create report cache", zap.Error(err))
	}
	defer func() {
		if err := closeReportCache(); err != nil {
			log.Error("Error closing report cache", zap.Error(err))
		}
	}()
	reconciliationService.SetReportCache(reportCache)

	if cfg.Storage.ArchiveEnabled() {
		archive, err := storage.NewS3ReportArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create report archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Report archive bucket is not ready", zap.String("bucket", archive.Bucket()), zap.Error(err))
		}
		reconciliationService.SetReportArchive(archive)
		log.Info("Report archive enabled", zap.String("bucket", archive.Bucket()))
	}

	// Business metrics
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             meter,
		Logger:            log,
		InventoryProvider: telemetry.NewGormInventoryMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
	defer businessMetrics.Stop()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	metricsHandler := event.NewMetricsHandler(businessMetrics)
	eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
	auditHandler := event.NewAuditLogHandler(log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	reportCacheHandler := apprecon.NewReportCacheHandler(reconciliationService, log)
	eventBus.Subscribe(reportCacheHandler, reportCacheHandler.EventTypes()...)
	reportArchiveHandler := apprecon.NewReportArchiveHandler(reconciliationService, log)
	eventBus.Subscribe(reportArchiveHandler, reportArchiveHandler.EventTypes()...)

	deliveryService.SetEventPublisher(eventBus)
	ledgerService.SetEventPublisher(eventBus)
	truckLoadService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)
	reconciliationService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Nightly maintenance
	if cfg.Scheduler.Enabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Scheduler.Cron)
		if err != nil {
			log.Fatal("Invalid scheduler.cron", zap.Error(err))
		}
		maintenance := scheduler.NewScheduler(scheduler.Config{
			Workers:       cfg.Scheduler.Workers,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
		}, scheduler.NewMaintenanceExecutor(ledgerService, reconciliationService, log), log)
		if err := maintenance.Start(ctx); err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		trigger := scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{Hour: hour, Minute: minute}, maintenance, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start maintenance trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = trigger.Stop(stopCtx)
			if err := maintenance.Stop(stopCtx); err != nil {
				log.Warn("Maintenance scheduler did not stop cleanly", zap.Error(err))
			}
		}()
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Server span, then error status once handlers ran
	// 5. Metrics - Request counters and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. Timeout - Bound the request context
	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = tracerProvider.IsEnabled()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(tracingConfig))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meter, log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	engine.GET("/health", handler.NewHealthHandler(db, 0).Check)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Mount(engine, router.Handlers{
		Inventory:      handler.NewInventoryHandler(deliveryService, ledgerService),
		TruckLoad:      handler.NewTruckLoadHandler(truckLoadService),
		Sale:           handler.NewSaleHandler(saleService),
		Allowance:      handler.NewAllowanceHandler(allowanceService),
		Reconciliation: handler.NewReconciliationHandler(reconciliationService),
	}, middleware.Actor(), middleware.TracingAttributeInjector(), middleware.ProfilingLabels(profiler.IsEnabled()))

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	shutdownTelemetry(shutdownCtx, log, tracerProvider, meterProvider, logsProvider)

	log.Info("Server exited gracefully")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownTelemetry flushes the providers in reverse start order
func shutdownTelemetry(ctx context.Context, log *zap.Logger, providers ...shutdowner) {
	for i := len(providers) - 1; i >= 0; i-- {
		if err := providers[i].Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}
}
