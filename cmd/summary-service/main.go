package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/internal/common/config"
	logutil "github.com/jaykchen/scrape-web-summary/internal/common/logger"
	"github.com/jaykchen/scrape-web-summary/internal/common/metricsserver"
	"github.com/jaykchen/scrape-web-summary/internal/render/chrome"
	"github.com/jaykchen/scrape-web-summary/internal/summary/llm"
	"github.com/jaykchen/scrape-web-summary/internal/summary/metrics"
	"github.com/jaykchen/scrape-web-summary/internal/summary/pdftext"
	"github.com/jaykchen/scrape-web-summary/internal/summary/pipeline"
	"github.com/jaykchen/scrape-web-summary/internal/summary/service"
)

func main() {
	configPath := flag.String("c", "configs/summary-service.yaml",
		"Path to configuration file")
	flag.Parse()

	// Best effort: local development keeps OPENAI_API_TOKEN in a .env file
	_ = godotenv.Load()

	// Initialize logger (will be reconfigured from config)
	initialLogger, err := logutil.NewDefaultLogger()
	if err != nil {
		panic(err)
	}

	initialLogger.Info("Loading configuration", zap.String("path", *configPath))

	absPath, err := config.GetConfigPath(*configPath)
	if err != nil {
		initialLogger.Fatal("Invalid config path", zap.Error(err))
	}

	cfg, err := config.LoadConfig(absPath)
	if err != nil {
		initialLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := logutil.NewLogger(cfg.Log)
	if err != nil {
		initialLogger.Fatal("Failed to create configured logger", zap.Error(err))
	}

	logger.Info("Summary Service starting",
		zap.String("service", cfg.Server.ID),
		zap.String("listen", cfg.Server.Listen),
		zap.String("chrome_pool_size", cfg.Chrome.PoolSize))

	// Initialize metrics collector (before pool creation)
	metricsCollector := metrics.NewMetricsCollector(cfg.Metrics.Namespace, logger)

	metricsServer, err := metricsserver.StartMetricsServer(
		cfg.Metrics.Enabled,
		cfg.Metrics.Listen,
		cfg.Metrics.Path,
		metricsCollector,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to start metrics server", zap.Error(err))
	}

	// Chrome pool
	chromeConfig := &chrome.Config{
		PoolSize:          cfg.Chrome.PoolSize,
		WarmupURL:         cfg.Chrome.Warmup.URL,
		WarmupTimeout:     time.Duration(cfg.Chrome.Warmup.Timeout),
		ShutdownTimeout:   30 * time.Second,
		RestartAfterCount: cfg.Chrome.Restart.AfterCount,
		RestartAfterTime:  time.Duration(cfg.Chrome.Restart.AfterTime),
	}

	logger.Info("Initializing Chrome pool")
	pool, err := chrome.NewChromePool(chromeConfig, metricsCollector, logger)
	if err != nil {
		logger.Fatal("Failed to create Chrome pool", zap.Error(err))
	}

	logger.Info("Chrome pool initialized",
		zap.Int("pool_size", pool.PoolSize()))

	// PDF text extractor
	extractor, err := pdftext.NewExtractor(pdftext.Config{
		MinIdle:        cfg.Pdfium.MinIdle,
		MaxIdle:        cfg.Pdfium.MaxIdle,
		MaxTotal:       cfg.Pdfium.MaxTotal,
		AcquireTimeout: time.Duration(cfg.Pdfium.AcquireTimeout),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize PDF text extractor", zap.Error(err))
	}

	// Summarizer client
	summarizer := llm.NewClient(llm.Config{
		BaseURL:     cfg.Summarizer.BaseURL,
		Model:       cfg.Summarizer.Model,
		MaxTokens:   cfg.Summarizer.MaxTokens,
		Temperature: cfg.Summarizer.Temperature,
	}, logger)

	if os.Getenv(llm.EnvAPIToken) == "" {
		logger.Warn("OPENAI_API_TOKEN is not set, summary requests will fail until it is provided")
	}

	// Pipeline
	renderer := pipeline.NewChromeRenderer(pool, time.Duration(cfg.Chrome.Print.NavigationTimeout), logger)
	summaryPipeline := pipeline.NewPipeline(
		renderer,
		extractor,
		summarizer,
		cfg.Summarizer.TokenBudget,
		metricsCollector,
		logger,
	)

	// HTTP server
	serverConfig := &service.ServerConfig{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout),
	}
	httpHandler := service.CreateHTTPHandler(summaryPipeline, pool, metricsCollector, serverConfig, logger)

	serverTimeout := cfg.Server.CalculateServerTimeout()

	server := &fasthttp.Server{
		Handler:      httpHandler,
		ReadTimeout:  serverTimeout,
		WriteTimeout: serverTimeout,
		IdleTimeout:  serverTimeout,
		Name:         "SummaryService/" + cfg.Server.ID,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("listen", cfg.Server.Listen))
		if err := server.ListenAndServe(cfg.Server.Listen); err != nil {
			serverErrCh <- err
		}
	}()

	// Wait briefly for HTTP server to start listening
	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-serverErrCh:
		logger.Fatal("HTTP server failed to start", zap.Error(err))
	default:
	}

	logger.Info("Summary Service ready",
		zap.String("service", cfg.Server.ID),
		zap.String("listen", cfg.Server.Listen),
		zap.Int("chrome_instances", pool.PoolSize()))

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErrCh:
		logger.Error("Server error", zap.Error(err))
	}

	logger.Info("Shutting down gracefully...")

	// Shutdown separate metrics server if exists
	if metricsServer != nil {
		metricsShutdownCtx, metricsShutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.ShutdownWithContext(metricsShutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", zap.Error(err))
		}
		metricsShutdownCancel()
	}

	// Graceful HTTP server shutdown - complete in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	// Shutdown Chrome pool
	if err := pool.Shutdown(); err != nil {
		logger.Error("Chrome pool shutdown error", zap.Error(err))
	}

	// Shutdown pdfium workers last, no renders can be in flight now
	if err := extractor.Close(); err != nil {
		logger.Error("PDF extractor shutdown error", zap.Error(err))
	}

	logger.Info("Summary Service stopped")
}
