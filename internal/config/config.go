package config

import (
	"os"
	"strconv"
	"time"

	"bdo-market/internal/logger"
)

type Config struct {
	// Trade market endpoints
	MarketBaseURL string
	MarketTimeout time.Duration
	UserAgent     string

	// Cache store (redis)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional MySQL history archive; empty disables it
	DatabaseURL string

	// Static category/group/name tables; empty uses the built-in tables
	TablesFile string

	// Collection
	Workers         int
	StockThreshold  int64
	Grade           int
	LadderOrder     string
	Retention       time.Duration
	TimestampLayout string
	Interval        time.Duration

	Port        string
	Environment string
	Log         logger.Config
}

func Load() *Config {
	return &Config{
		MarketBaseURL: getEnv("MARKET_BASE_URL", "https://trade.kr.playblackdesert.com/Trademarket/"),
		MarketTimeout: getEnvDuration("MARKET_TIMEOUT", 10*time.Second),
		UserAgent:     getEnv("MARKET_USER_AGENT", "BlackDesert"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablesFile:  getEnv("TABLES_FILE", ""),

		Workers:         getEnvInt("COLLECTOR_WORKERS", 10),
		StockThreshold:  int64(getEnvInt("STOCK_THRESHOLD", 10000)),
		Grade:           getEnvInt("BIDDING_GRADE", 0),
		LadderOrder:     getEnv("PRICE_LADDER_ORDER", "lexical"),
		Retention:       getEnvDuration("SNAPSHOT_RETENTION", 48*time.Hour),
		TimestampLayout: getEnv("TIMESTAMP_LAYOUT", "0102-1504"),
		Interval:        getEnvDuration("COLLECT_INTERVAL", 5*time.Minute),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Log: logger.Config{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "json"),
			FilePath: getEnv("LOG_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
