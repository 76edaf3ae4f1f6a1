// Package app assembles the inference router server: configuration, optional
// persistence, the response cache, provider adapters, the alert engine, and
// the HTTP surface.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/solara-ai/inference-router/internal/api"
	"github.com/solara-ai/inference-router/internal/config"
	"github.com/solara-ai/inference-router/internal/models"
	"github.com/solara-ai/inference-router/internal/services/alerts"
	"github.com/solara-ai/inference-router/internal/services/cache"
	"github.com/solara-ai/inference-router/internal/services/fallback"
	"github.com/solara-ai/inference-router/internal/services/notify"
	"github.com/solara-ai/inference-router/internal/services/providers"
	"github.com/solara-ai/inference-router/internal/services/router"
	"github.com/solara-ai/inference-router/internal/services/store"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// App is a fully wired inference router server instance
type App struct {
	config *config.Config
	fiber  *fiber.App

	db       *store.DB
	cacheSvc *cache.Service
	engine   *alerts.Engine
	router   *router.Router
}

// New creates an App from the given configuration. The cfg parameter is
// required and must not be nil.
func New(cfg *config.Config) *App {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or config.Default()")
	}
	return &App{config: cfg}
}

// Run starts the server and blocks until shutdown
func (a *App) Run() error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(a.config)

	port := a.config.Server.Port
	if port == "" {
		port = "8080"
	}
	listenAddr := ":" + port

	if err := a.initialize(); err != nil {
		return err
	}
	if a.db != nil {
		defer func() {
			if err := a.db.Close(); err != nil {
				fiberlog.Errorf("Failed to close database connection: %v", err)
			}
		}()
	}

	a.fiber = createFiberApp(a.config)
	setupMiddleware(a.fiber, a.config)
	a.setupRoutes()

	fmt.Printf("🚀 Inference router starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", a.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := a.fiber.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		fiberlog.Info("Context cancelled, starting shutdown...")
	}

	fiberlog.Info("Server shutting down gracefully...")
	if err := a.fiber.ShutdownWithTimeout(30 * time.Second); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fiberlog.Info("Server shutdown completed successfully")
	return nil
}

// Router exposes the wired request router for embedding the service as a
// library instead of running the HTTP surface.
func (a *App) Router() (*router.Router, error) {
	if a.router == nil {
		if err := a.initialize(); err != nil {
			return nil, err
		}
	}
	return a.router, nil
}

// initialize wires infrastructure and services in dependency order
func (a *App) initialize() error {
	if a.router != nil {
		return nil
	}
	cfg := a.config

	// Persistence is optional: without it, alerts are log-only and request
	// provenance is disabled.
	var alertStore alerts.Store
	var provenance providers.ProvenanceStore
	if cfg.Database != nil {
		db, err := store.New(*cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.db = db
		alertStore = store.NewAlertStore(db)
		provenance = store.NewRequestLogStore(db)
		fiberlog.Infof("Database connected (%s)", db.DriverName())
	} else {
		fiberlog.Info("No database configured - alerts are log-only, provenance disabled")
	}

	var notifier alerts.Notifier
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notifier.WebhookURL,
			time.Duration(cfg.Notifier.TimeoutMs)*time.Millisecond)
		fiberlog.Info("Webhook notifier enabled")
	} else {
		notifier = notify.NewLogNotifier()
	}

	a.engine = alerts.NewEngine(cfg.Monitoring, alertStore, notifier)

	cacheSvc, err := cache.NewService(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.cacheSvc = cacheSvc

	registry := providers.NewRegistry(a.buildAdapters()...)
	cascade := fallback.NewCascade(cfg, registry, a.engine)
	a.router = router.New(cfg, registry, cascade, cacheSvc, a.engine, provenance)
	return nil
}

// buildAdapters creates one adapter per provider with an API key configured
func (a *App) buildAdapters() []providers.Adapter {
	var adapters []providers.Adapter
	for provider, pc := range a.config.Providers {
		if pc.APIKey == "" {
			fiberlog.Debugf("Provider %s has no API key - skipping", provider)
			continue
		}
		switch provider {
		case models.ProviderGroq:
			adapters = append(adapters, providers.NewGroqAdapter(pc))
		case models.ProviderGemini:
			adapters = append(adapters, providers.NewGeminiAdapter(pc))
		case models.ProviderAnthropic:
			adapters = append(adapters, providers.NewAnthropicAdapter(pc))
		default:
			fiberlog.Warnf("Unknown provider %s in configuration - skipping", provider)
		}
	}
	fiberlog.Infof("Initialized %d provider adapter(s)", len(adapters))
	return adapters
}

func (a *App) setupRoutes() {
	inferenceHandler := api.NewInferenceHandler(a.router)
	alertHandler := api.NewAlertHandler(a.engine)
	healthHandler := api.NewHealthHandler(a.redisClient(), a.db)

	a.fiber.Get("/health", healthHandler.HealthCheck)

	v1 := a.fiber.Group("/v1")
	v1.Post("/inference", inferenceHandler.Infer)
	v1.Get("/alerts", alertHandler.List)
	v1.Post("/alerts/:id/acknowledge", alertHandler.Acknowledge)
}

// redisClient returns the cache's redis client when the redis backend is in
// use, for health reporting
func (a *App) redisClient() *redis.Client {
	if a.cacheSvc == nil {
		return nil
	}
	return a.cacheSvc.RedisClient()
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:           "InferenceRouter v1.0",
		EnablePrintRoutes: !isProd,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		ReadBufferSize:    8192,
		WriteBufferSize:   8192,
		CaseSensitive:     true,
		ServerHeader:      "InferenceRouter",
	})
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	isProd := cfg.IsProduction()

	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, User-Agent",
		AllowMethods:  "GET, POST, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
	}))
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}
}
