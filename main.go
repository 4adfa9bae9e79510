package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"therapy/config"
	"therapy/cron"
	"therapy/database"
	"therapy/database/repository"
	"therapy/handlers"
	"therapy/observability"
	"therapy/routes"
	"therapy/services/callprovider"
	"therapy/services/intelligence"
	"therapy/services/ledger"
	"therapy/services/lifecycle"
	"therapy/services/negotiation"
	"therapy/services/notification"
	"therapy/services/tasks"
	"therapy/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET is required")
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	var repos repository.Repositories
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("main: using in-memory store, data is lost on restart")
		repos = repository.NewMemoryRepositories()
	default:
		db, err := database.InitDB(cfg)
		if err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		repos = repository.NewMongoRepositories(db)
	}
	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := repos.EnsureIndexes(idxCtx); err != nil {
		logger.Fatal("main: failed to create indexes", zap.Error(err))
	}
	cancel()

	// Redis is optional: without it there is no slot cache, copy cache or task queue.
	if err := utils.InitCache(cfg); err != nil {
		logger.Warn("main: Redis unavailable, running without cache and task queue", zap.Error(err))
	}
	cache := utils.GetCacheClient()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// Notifications.
	var notifier notification.NotificationService = notification.LogNotificationService{Logger: logger}
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := utils.NewFCMClient(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("main: failed to initialize Firebase", zap.Error(err))
		}
		svc, err := notification.NewDefaultNotificationService(fcm, repos.Profiles, logger)
		if err != nil {
			logger.Fatal("main: failed to build notification service", zap.Error(err))
		}
		notifier = svc
	}
	events := notification.NewPublisher(notifier, 10*time.Second, logger)

	// Generated copy.
	var generator intelligence.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, err := intelligence.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("main: Gemini unavailable, using canned copy", zap.Error(err))
		} else {
			defer gemini.Close()
			generator = gemini
		}
	}
	var copyStore *intelligence.RedisCopyStore
	if cache != nil {
		copyStore = intelligence.NewRedisCopyStore(cache, cfg.CopyCacheTTL)
	}
	copywriter := intelligence.NewCopywriter(generator, copyStore, cfg.GeminiTimeout, metrics, logger)

	// Core services.
	slotLedger := ledger.NewSlotLedger(repos.Slots, cache, cfg.SlotCacheTTL, metrics, logger)

	var enqueuer tasks.Enqueuer
	var taskClient *asynq.Client
	if cache != nil {
		taskClient = asynq.NewClient(cron.RedisOpt(cfg))
		defer taskClient.Close()
		inspector := asynq.NewInspector(cron.RedisOpt(cfg))
		defer inspector.Close()
		asynqEnqueuer := tasks.NewAsynqEnqueuer(taskClient)
		asynqEnqueuer.Inspector = inspector
		asynqEnqueuer.Logger = logger
		enqueuer = asynqEnqueuer
	}

	manager := lifecycle.NewLifecycleManager(slotLedger, repos.Sessions, enqueuer, events, logger)
	manager.Copy = copywriter
	manager.Metrics = metrics
	manager.ReminderLead = cfg.ReminderLeadTime
	manager.Location = cfg.Location()

	videoSDK := callprovider.NewVideoSDKClient(cfg.VideoSDKAPIKey, cfg.VideoSDKSecret, cfg.VideoSDKBaseURL, cfg.VideoSDKTimeout, metrics)
	negotiator := negotiation.NewNegotiator(repos.Sessions, videoSDK, events, cfg.CallRequestCooldown, logger)
	negotiator.Metrics = metrics

	// Background work.
	var worker *cron.Worker
	if cache != nil {
		worker = cron.NewWorker(cfg, manager, logger)
		if err := worker.Start(); err != nil {
			logger.Error("main: task worker not running, slot releases rely on the startup sweep", zap.Error(err))
			worker = nil
		}
	}
	if n, err := manager.SweepPendingReleases(ctx); err != nil {
		logger.Error("main: pending release sweep failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("main: released slots left pending by earlier cancellations", zap.Int("count", n))
	}

	health := utils.NewHealthMonitor(cache, database.MongoClient)
	health.Start(ctx, 30*time.Second)

	// HTTP.
	hb := &handlers.HandlerBundle{
		Ledger:     slotLedger,
		Lifecycle:  manager,
		Negotiator: negotiator,
		Tokens:     videoSDK,
		Copy:       copywriter,
		Profiles:   repos.Profiles,
		Health:     health,
	}
	router := gin.New()
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, hb, routes.Options{
		JWTSecret:         cfg.JWTSecret,
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		Gatherer:          prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("main: starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	events.Wait()
	if database.MongoClient != nil {
		if err := database.CloseDB(shutdownCtx); err != nil {
			logger.Warn("main: closing MongoDB", zap.Error(err))
		}
	}
	logger.Info("main: server stopped gracefully")
}
