package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Dosada05/prode/cache"
	"github.com/Dosada05/prode/config"
	"github.com/Dosada05/prode/db"
	"github.com/Dosada05/prode/events"
	"github.com/Dosada05/prode/handlers"
	"github.com/Dosada05/prode/live"
	"github.com/Dosada05/prode/metrics"
	"github.com/Dosada05/prode/repositories"
	api "github.com/Dosada05/prode/routes"
	"github.com/Dosada05/prode/scheduler"
	"github.com/Dosada05/prode/services"
	"github.com/Dosada05/prode/storage"
	"github.com/go-chi/chi/v5"
)

const schedulerTimeout = 30 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Int("metrics_port", cfg.MetricsPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Кэш рейтинга (Redis), опционально
	var rankingCache services.RankingCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rdb.Close()
		rankingCache = cache.NewRankingCache(rdb, cfg.RankingCacheTTL)
		logger.Info("ranking cache enabled", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.RankingCacheTTL))
	}

	// События (Kafka), опционально
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicResults)
		logger.Info("kafka publisher enabled", slog.String("topic", cfg.KafkaTopicResults))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", slog.Any("error", err))
		}
	}()

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	r2Cfg := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	uploader, err = storage.NewR2Uploader(ctx, r2Cfg, logger)
	switch {
	case errors.Is(err, storage.ErrR2NotConfigured):
		uploader = nil
		logger.Info("R2 is not configured, avatar uploads disabled")
	case err != nil:
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	default:
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация WebSocket Hub
	hub := live.NewHub(logger)
	go hub.Run(ctx)

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	betRepo := repositories.NewPostgresBetRepository(dbConn)

	// Инициализация сервисов
	rankingService := services.NewRankingService(betRepo, rankingCache, logger)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader, logger)
	stageService := services.NewStageService(stageRepo)
	matchService := services.NewMatchService(matchRepo, stageRepo, rankingService, publisher, hub, cfg.MatchDuration, logger)
	betService := services.NewBetService(dbConn, betRepo, matchRepo, stageRepo, rankingService, logger)
	profileService := services.NewProfileService(userRepo, stageRepo, betRepo, rankingService, uploader)
	logger.Info("services initialized")

	// Планировщик закрытия этапов
	watcher := scheduler.NewStageWatcher(stageRepo, publisher, hub, logger)
	cronScheduler, err := scheduler.Start(cfg.StageWatchSchedule, watcher, schedulerTimeout)
	if err != nil {
		logger.Error("failed to start stage watcher", slog.Any("error", err))
		os.Exit(1)
	}

	healthFn := func(ctx context.Context) error { return dbConn.PingContext(ctx) }
	metricsServer := metrics.StartMetricsServer(strconv.Itoa(cfg.MetricsPort), healthFn)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Stage:     handlers.NewStageHandler(stageService),
		Match:     handlers.NewMatchHandler(matchService),
		Bet:       handlers.NewBetHandler(betService),
		Ranking:   handlers.NewRankingHandler(rankingService, stageService),
		User:      handlers.NewUserHandler(userService, profileService),
		WebSocket: handlers.NewWebSocketHandler(hub, stageService, cfg.CORSAllowedOrigins, logger),
		Health:    metrics.HealthHandler(healthFn),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	<-cronScheduler.Stop().Done()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
	} else {
		logger.Info("server shutdown complete")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
	stop()
	logger.Info("application exited")
}
