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

	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/delivery/consumer"
	delivery "stock-auto-trader/internal/trader/delivery/http"
	_ "stock-auto-trader/internal/trader/docs"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trader/service"
	"stock-auto-trader/internal/trader/strategy"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/common"
	"stock-auto-trader/pkg/kafka"
	"stock-auto-trader/pkg/logger"
	"stock-auto-trader/pkg/postgres"
	"stock-auto-trader/pkg/redis"
	"stock-auto-trader/pkg/telegram"
	"stock-auto-trader/pkg/tracing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the trading service",
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

	appLogger.Info("Starting Trading Service",
		logger.Field("name", cfg.App.Name),
		logger.Field("dry_run", cfg.Trading.DryRun),
		logger.Field("signal_store", cfg.Trading.SignalStore))

	tracer, err := tracing.Init(cfg.Tracing.Enabled, cfg.App.Name, cfg.App.Version)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracing", logger.ErrorField(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
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

	if err := redisClient.EnsureGroup(ctx, common.RedisStreamSellEvaluation, common.RedisStreamGroup); err != nil {
		appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	// Order events
	publisher := kafka.NewNopPublisher()
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic)
		defer producer.Close()
		publisher = producer
	}

	// Notifications
	telegramBot := telegram.NewNopNotifier()
	if cfg.Telegram.Enabled {
		telegramBot, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize telegram bot", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	stocksRepo := repository.NewStocksRepository(db.DB)
	priceHistoryRepo := repository.NewPriceHistoryRepository(db.DB)
	historyRepo := repository.NewTaskExecutionHistoryRepository(db.DB)
	trailingRepo := repository.NewTrailingStopRepository(db.DB)
	partialRepo := repository.NewPartialSellHistoryRepository(db.DB)
	sellEvaluationRepo := repository.NewSellEvaluationRepository(db.DB)
	orderLogRepo := repository.NewOrderLogRepository(db.DB)
	recommendationRepo := repository.NewRecommendationRepository(db.DB)
	lockRepo := repository.NewTickerLockRepository(redisClient.Client)
	brokerRepo := repository.NewBrokerRepository(cfg.Broker, appLogger)

	var signalRepo repository.SignalRepository
	switch cfg.Trading.SignalStore {
	case "redis":
		signalRepo = repository.NewRedisSignalRepository(redisClient.Client)
	default:
		signalRepo = repository.NewSignalRepository(db.DB)
	}

	// Decision engine
	scorer, err := trading.NewScorer(cfg.Trading.Scoring)
	if err != nil {
		appLogger.Fatal("Invalid scoring configuration", logger.ErrorField(err))
	}
	sellEvaluator, err := trading.NewSellEvaluator(cfg.Trading.Sell)
	if err != nil {
		appLogger.Fatal("Invalid sell configuration", logger.ErrorField(err))
	}
	selector := trading.NewSelector(scorer)

	// Initialize services
	orderSvc := service.NewOrderService(appLogger, brokerRepo, orderLogRepo, publisher)
	recommendationSvc := service.NewRecommendationService(cfg, appLogger, stocksRepo, signalRepo, brokerRepo, selector)
	autoBuySvc := service.NewAutoBuyService(cfg, appLogger, recommendationSvc, orderSvc, lockRepo, recommendationRepo, trailingRepo, partialRepo, telegramBot)
	sellEvaluationSvc := service.NewSellEvaluationService(cfg, appLogger, redisClient.Client, brokerRepo, signalRepo, stocksRepo,
		trailingRepo, partialRepo, sellEvaluationRepo, lockRepo, orderSvc, sellEvaluator, telegramBot)
	technicalSvc := service.NewTechnicalService(cfg, appLogger, stocksRepo, priceHistoryRepo, signalRepo)
	historySvc := service.NewExecutionHistoryService(historyRepo, appLogger)

	strategies := []strategy.JobExecutionStrategy{
		strategy.NewAutoBuyStrategy(appLogger, autoBuySvc),
		strategy.NewSellMonitorStrategy(appLogger, redisClient.Client, brokerRepo, sellEvaluationSvc, cfg.Redis.StreamMaxLen),
		strategy.NewTechnicalRefreshStrategy(appLogger, technicalSvc),
	}
	schedulerSvc, err := service.NewSchedulerService(cfg, appLogger, historyRepo, strategies, service.NewSchedulerState(cfg.Scheduler.Enabled))
	if err != nil {
		appLogger.Fatal("Failed to initialize scheduler", logger.ErrorField(err))
	}

	// Start background workers
	schedulerSvc.Start(ctx)
	redisConsumer := consumer.NewRedisConsumer(cfg, sellEvaluationSvc, appLogger)
	redisConsumer.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")
	delivery.NewRecommendationHandler(recommendationSvc, appLogger).RegisterRoutes(apiV1.Group("/recommendations"))
	delivery.NewPositionHandler(sellEvaluationSvc, appLogger).RegisterRoutes(apiV1.Group("/positions"))
	delivery.NewSchedulerHandler(schedulerSvc, appLogger).RegisterRoutes(apiV1.Group("/scheduler"))
	delivery.NewExecutionHistoryHandler(historySvc, appLogger).RegisterRoutes(apiV1.Group("/executions"))

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	if err := schedulerSvc.Stop(shutdownCtx); err != nil {
		appLogger.Error("Scheduler did not stop in time", logger.ErrorField(err))
	}
	redisConsumer.Stop()

	appLogger.Info("Server exiting")
}

// @title Stock Auto Trader API
// @version 1.0
// @description Recommendations, position evaluation and scheduler control for the automated trader.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "trading-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing trading-service CLI: %s\n", err)
		os.Exit(1)
	}
}
