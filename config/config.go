package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	MetricsPort  int
	LogLevel     slog.Level

	CORSAllowedOrigins []string

	MatchDuration      time.Duration
	StageWatchSchedule string

	RedisAddr       string
	RankingCacheTTL time.Duration

	KafkaBrokers      string
	KafkaTopicResults string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := portFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	metricsPort, err := portFromEnv("METRICS_PORT", 9090)
	if err != nil {
		return nil, err
	}
	if metricsPort == port {
		return nil, fmt.Errorf("METRICS_PORT must differ from SERVER_PORT (%d)", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	matchDuration, err := durationFromEnv("MATCH_DURATION", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := durationFromEnv("RANKING_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	schedule := getEnvOrDefault("STAGE_WATCH_SCHEDULE", "@every 1m")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid STAGE_WATCH_SCHEDULE %q: %w", schedule, err)
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		MetricsPort:        metricsPort,
		LogLevel:           level,
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		MatchDuration:      matchDuration,
		StageWatchSchedule: schedule,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RankingCacheTTL:    cacheTTL,
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		KafkaTopicResults:  getEnvOrDefault("KAFKA_TOPIC_RESULTS", "prode.results"),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func portFromEnv(key string, def int) (int, error) {
	portStr := getEnvOrDefault(key, strconv.Itoa(def))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535, got %d", key, port)
	}
	return port, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
