package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"sjsage522/contactmerge/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string
	CacheTTL     time.Duration

	// HTTP lookups
	HTTPTimeout    time.Duration
	RateLimitBlock time.Duration
	YouTubeAPIKey  string
	YouTubeAPIURL  string
	SteamStoreURL  string

	// Merge tuning
	NameMatchThreshold float64
	WorkerConcurrency  int

	// File that collects per-item failures of long passes
	ErrorLogFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "10000"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "86400"))
	httpTimeout, _ := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "10"))
	blockTime, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "500"))
	threshold, err := strconv.ParseFloat(getEnv("NAME_MATCH_THRESHOLD", "1.0"), 64)
	if err != nil {
		threshold = 1.0
	}
	concurrency, _ := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "1"))

	return &Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "contacts"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CacheTTL:             time.Duration(cacheTTL) * time.Second,
		HTTPTimeout:          time.Duration(httpTimeout) * time.Second,
		RateLimitBlock:       time.Duration(blockTime) * time.Second,
		YouTubeAPIKey:        getEnv("YOUTUBE_API_KEY", ""),
		YouTubeAPIURL:        getEnv("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3"),
		SteamStoreURL:        getEnv("STEAM_STORE_URL", "https://store.steampowered.com"),
		NameMatchThreshold:   threshold,
		WorkerConcurrency:    concurrency,
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "contactmerge_errors.log"),
		Environment:          getEnv("CONTACTS_ENVIRONMENT", "development"),
	}
}

// Validate checks value ranges that LoadConfig cannot repair on its own
func (c *Config) Validate() error {
	if c.RedisStreamCount < 1 {
		return errors.NewConfiguration(fmt.Sprintf("REDIS_STREAM_COUNT must be at least 1, got %d", c.RedisStreamCount), nil)
	}
	if c.RedisStreamMaxLength < 1 {
		return errors.NewConfiguration(fmt.Sprintf("REDIS_STREAM_MAX_LENGTH must be at least 1, got %d", c.RedisStreamMaxLength), nil)
	}
	if c.NameMatchThreshold <= 0 || c.NameMatchThreshold > 1 {
		return errors.NewConfiguration(fmt.Sprintf("NAME_MATCH_THRESHOLD must be in (0, 1], got %v", c.NameMatchThreshold), nil)
	}
	if c.WorkerConcurrency < 1 {
		return errors.NewConfiguration(fmt.Sprintf("WORKER_CONCURRENCY must be at least 1, got %d", c.WorkerConcurrency), nil)
	}
	if c.HTTPTimeout <= 0 {
		return errors.NewConfiguration("HTTP_TIMEOUT_SECONDS must be positive", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
