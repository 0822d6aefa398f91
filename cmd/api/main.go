package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/mfl-intake/internal/api/http"
	"github.com/spec-kit/mfl-intake/internal/api/http/handlers"
	"github.com/spec-kit/mfl-intake/internal/auth"
	"github.com/spec-kit/mfl-intake/internal/cache"
	"github.com/spec-kit/mfl-intake/internal/carrier"
	"github.com/spec-kit/mfl-intake/internal/config"
	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/events"
	"github.com/spec-kit/mfl-intake/internal/mfl"
	"github.com/spec-kit/mfl-intake/internal/observability"
	"github.com/spec-kit/mfl-intake/internal/persistence"
	"github.com/spec-kit/mfl-intake/internal/repository"
	"github.com/spec-kit/mfl-intake/internal/service"
	"github.com/spec-kit/mfl-intake/internal/worker"
	"github.com/spec-kit/mfl-intake/internal/zendesk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	secrets, err := config.LoadSecrets(cfg.SecretsPath)
	if err != nil {
		logger.Fatal("configuration error", zap.String("path", cfg.SecretsPath), zap.Error(err))
	}
	carrierToken := cfg.Carrier.Token
	if carrierToken == "" {
		carrierToken = secrets.CarrierToken
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	var (
		redis     *persistence.Redis
		sessions  repository.SessionRepository
		formCache cache.Provider
	)
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer redis.Close()
		sessions = repository.NewRedisSessionRepository(redis.Client, cfg.Session.TTL())
		formCache = cache.NewRedisProvider(redis.Client, "mfl:cache:")
	default:
		sessions = repository.NewMemorySessionRepository(cfg.Session.TTL())
		formCache = cache.NewMemoryProvider()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	locks := service.NewSessionLocks()

	mwClient := mfl.NewClient(cfg.Middleware.BaseURL, cfg.Middleware.Timeout(), logger, metrics)
	carrierClient := carrier.NewClient(cfg.Carrier.URL, carrierToken, cfg.Carrier.Timeout(), logger, metrics)
	zdClient := zendesk.NewClient(zendesk.Credentials{
		Subdomain: secrets.Zendesk.Subdomain,
		Email:     secrets.Zendesk.Email,
		APIToken:  secrets.Zendesk.APIToken,
	}, cfg.Zendesk.BaseURL, cfg.Zendesk.Timeout(), logger, metrics)

	macroService := service.NewMacroService(service.MacroDependencies{
		API:        zdClient,
		Table:      domain.DefaultMacroTable,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Sessions:   sessions,
		Middleware: mwClient,
		Carrier:    carrierClient,
		Links:      zdClient,
		Macros:     macroService,
		Zendesk:    secrets.Zendesk,
		Locks:      locks,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	monitorService := service.NewMonitorService(service.MonitorDependencies{
		Sessions:   sessions,
		Tickets:    zdClient,
		Macros:     macroService,
		Locks:      locks,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	listService := service.NewTicketListService(sessions, mwClient, locks)
	formService := service.NewFormService(mwClient, formCache, cfg.Middleware.FormFieldsCacheTTL(), secrets.Zendesk, logger)
	tokens := auth.NewTokenManager(cfg.Session.TokenSecret, cfg.Session.TTL())
	sessionService := service.NewSessionService(sessions, tokens, dispatcher, logger)

	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()
	poller := worker.NewStatusPoller(monitorService, cfg.Monitor.PollInterval(), cfg.App.RequestTimeout(), logger)
	poller.RegisterHandlers(dispatcher)

	if !carrierClient.Enabled() {
		logger.Warn("carrier lookup disabled: no API token configured")
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis),
		Sessions:          handlers.NewSessionsHandler(sessionService),
		Intake:            handlers.NewIntakeHandler(intakeService, formService),
		Tickets:           handlers.NewTicketsHandler(listService),
		Monitor:           handlers.NewMonitorHandler(monitorService),
		SessionMiddleware: auth.NewSessionMiddleware(tokens, sessions),
		Gatherer:          registry,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("session_store", cfg.Session.Store))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := poller.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status poller shutdown", zap.Error(err))
	}
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
