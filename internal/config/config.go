// Package config loads runtime configuration from the environment with
// validated defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig aggregates runtime settings. Redis and Kafka are optional
// collaborators: an empty address disables rate limiting or outbid event
// publishing respectively.
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	KafkaBrokers []string
	KafkaTopic   string

	// Rate limiting for the place-bid endpoint.
	BidRateLimit  int
	BidRateWindow time.Duration

	// SweepInterval controls the background lifecycle reconciliation.
	SweepInterval time.Duration

	// UnpaidBanDuration is how long a non-paying winner is blacklisted.
	// Zero means permanent.
	UnpaidBanDuration time.Duration

	// AdminToken guards operational endpoints (create/cancel/unpaid/sweep).
	AdminToken string
}

// Load reads and validates configuration, applying defaults for anything
// unset.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "auction_house.db"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisDB:           0,
		KafkaBrokers:      splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "auction-outbid-events"),
		BidRateLimit:      20,
		BidRateWindow:     time.Second,
		SweepInterval:     5 * time.Second,
		UnpaidBanDuration: 30 * 24 * time.Hour,
		AdminToken:        getEnv("ADMIN_TOKEN", "dev-admin-token"),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("BID_RATE_LIMIT", cfg.BidRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BID_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("BID_RATE_LIMIT must be > 0")
	}
	cfg.BidRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("BID_RATE_WINDOW_SEC", int(cfg.BidRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BID_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("BID_RATE_WINDOW_SEC must be > 0")
	}
	cfg.BidRateWindow = time.Duration(rateWindowSec) * time.Second

	sweepSec, err := getEnvInt("SWEEP_INTERVAL_SEC", int(cfg.SweepInterval.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SWEEP_INTERVAL_SEC: %w", err)
	}
	if sweepSec <= 0 {
		return AppConfig{}, fmt.Errorf("SWEEP_INTERVAL_SEC must be > 0")
	}
	cfg.SweepInterval = time.Duration(sweepSec) * time.Second

	banHours, err := getEnvInt("UNPAID_BAN_HOURS", int(cfg.UnpaidBanDuration.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid UNPAID_BAN_HOURS: %w", err)
	}
	if banHours < 0 {
		return AppConfig{}, fmt.Errorf("UNPAID_BAN_HOURS must be >= 0")
	}
	cfg.UnpaidBanDuration = time.Duration(banHours) * time.Hour

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty when brokers are set")
	}

	return cfg, nil
}

// getEnv reads a string environment variable, falling back when empty.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer environment variable, falling back when empty.
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV parses a comma-separated list, dropping empty entries.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
