package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-deal-sentinel/internal/sentinel/config"
	delivery "golang-deal-sentinel/internal/sentinel/delivery/http"
	"golang-deal-sentinel/internal/sentinel/fetcher"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/internal/sentinel/service"
	"golang-deal-sentinel/pkg/logger"
	"golang-deal-sentinel/pkg/postgres"
	"golang-deal-sentinel/pkg/redis"
	"golang-deal-sentinel/pkg/telegram"
	"golang-deal-sentinel/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the deal sentinel service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Deal Sentinel Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize Gemini client; extraction degrades to fast mode without it.
	var extractor repository.ExtractionRepository
	if cfg.Gemini.APIKey != "" {
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini client", logger.ErrorField(err))
		}
		extractor, err = repository.NewGeminiExtractionRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize extraction repository", logger.ErrorField(err))
		}
	} else {
		appLogger.Warn("No Gemini API key configured, deep extraction disabled")
		extractor = repository.NewDisabledExtractionRepository()
	}

	// Initialize repositories
	signalRepo := repository.NewSignalRepository(db.DB)
	sourceRepo := repository.NewSourceRepository(db.DB, appLogger)
	watchlistRepo := repository.NewWatchlistRepository(db.DB)
	runRepo := repository.NewSweepRunRepository(db.DB)
	pulseRepo := repository.NewPulseRepository(db.DB)
	taskRepo := repository.NewTaskStatusRepository(redisClient.Client, cfg.Sweep.TaskStatusTTL)
	enricher := repository.NewCompaniesHouseRepository(cfg, appLogger)

	// Initialize services
	feedFetcher := fetcher.NewFeedFetcher(appLogger, cfg.Sweep.HTTPTimeout, cfg.Sweep.EntriesPerSource)
	shadowSvc := service.NewShadowMarketService(appLogger)
	sweepSvc := service.NewSweepService(cfg, appLogger, sourceRepo, watchlistRepo, signalRepo,
		runRepo, taskRepo, feedFetcher, extractor, enricher, shadowSvc)
	ingestSvc := service.NewIngestService(appLogger, extractor, enricher, signalRepo, watchlistRepo)

	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}
	pulseSvc := service.NewPulseService(cfg, appLogger, signalRepo, pulseRepo, notifier)

	// Schedule recurring jobs
	scheduler := cron.New()
	if cfg.Sweep.Cron != "" {
		if _, err := scheduler.AddFunc(cfg.Sweep.Cron, func() {
			utils.GoSafe(func() {
				if _, err := sweepSvc.RunSweep(context.Background()); err != nil {
					appLogger.Error("Scheduled sweep failed", logger.ErrorField(err))
				}
			})
		}); err != nil {
			appLogger.Fatal("Invalid sweep cron expression", logger.ErrorField(err))
		}
	}
	if cfg.Pulse.Cron != "" {
		if _, err := scheduler.AddFunc(cfg.Pulse.Cron, func() {
			utils.GoSafe(func() {
				if _, err := pulseSvc.GeneratePulse(context.Background()); err != nil {
					appLogger.Error("Scheduled pulse failed", logger.ErrorField(err))
				}
			})
		}); err != nil {
			appLogger.Fatal("Invalid pulse cron expression", logger.ErrorField(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	taskHandler := delivery.NewTaskHandler(sweepSvc, appLogger)
	taskHandler.RegisterRoutes(apiV1.Group("/tasks"))

	ingestHandler := delivery.NewIngestHandler(ingestSvc, appLogger)
	ingestHandler.RegisterRoutes(apiV1.Group("/ingest"))

	signalHandler := delivery.NewSignalHandler(signalRepo, appLogger)
	signalHandler.RegisterRoutes(apiV1.Group("/signals"))

	sourceHandler := delivery.NewSourceHandler(sourceRepo, appLogger)
	sourceHandler.RegisterRoutes(apiV1.Group("/sources"))

	watchlistHandler := delivery.NewWatchlistHandler(watchlistRepo, appLogger)
	watchlistHandler.RegisterRoutes(apiV1.Group("/watchlist"))

	pulseHandler := delivery.NewPulseHandler(pulseSvc, appLogger)
	pulseHandler.RegisterRoutes(apiV1.Group("/pulse"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "sentinel-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing sentinel-service CLI: %s\n", err)
		os.Exit(1)
	}
}
