package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eegweb/internal/config"
	handlers "eegweb/internal/http/handler"
	"eegweb/internal/http/middleware"
	"eegweb/internal/http/view"
	"eegweb/internal/logger"
	"eegweb/internal/otel"
	"eegweb/internal/plot"
	"eegweb/internal/service"
	"eegweb/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg := logger.New(
		logger.WithLevel(cfg.Log.Level),
		logger.WithDevelopment(cfg.Log.Development),
		logger.WithLocation(cfg.Log.Location()),
		logger.WithFields(map[string]any{"service": otel.DefaultServiceName}),
	)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, lg)
	if err != nil {
		lg.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			lg.Error("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	// Uploaded recordings stay private; generated plots are served as static files
	uploads, err := storage.NewLocal(cfg.Storage.UploadDir, "")
	if err != nil {
		lg.Fatal("failed to initialize upload storage", zap.Error(err))
	}
	artifacts, err := storage.NewLocal(cfg.Storage.StaticDir, cfg.Storage.StaticURL)
	if err != nil {
		lg.Fatal("failed to initialize artifact storage", zap.Error(err))
	}

	renderer, err := plot.NewRenderer()
	if err != nil {
		lg.Fatal("failed to initialize plot renderer", zap.Error(err))
	}
	views, err := view.New(cfg.Analysis)
	if err != nil {
		lg.Fatal("failed to parse templates", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		lg.Fatal("failed to register http metrics", zap.Error(err))
	}
	pipelineMetrics, err := service.NewMetrics(reg)
	if err != nil {
		lg.Fatal("failed to register pipeline metrics", zap.Error(err))
	}

	svc := service.NewAnalysisService(uploads, artifacts, renderer, cfg.Analysis,
		service.WithLogger(lg.Named("analysis")),
		service.WithMetrics(pipelineMetrics),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.MaxUploadBytes(),
	})

	// Register global middleware
	// Recover must come first so a panic in any later handler becomes an INTERNAL_ERROR
	app.Use(middleware.Recover(lg.Named("http")))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(lg.Named("http")))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	app.Static(cfg.Storage.StaticURL, cfg.Storage.StaticDir)

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, svc, views, cfg.Analysis.DefaultTimescale, uploads, artifacts)

	go func() {
		<-ctx.Done()
		lg.Info("server_stopping")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Error("server_shutdown_failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	lg.Info("server_starting", zap.String("addr", addr), zap.String("public_host", cfg.AppHost))
	if err := app.Listen(addr); err != nil {
		lg.Fatal("failed to start server", zap.Error(err))
	}
}
