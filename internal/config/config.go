// Package config validates the process environment into a typed Config,
// failing fast with actionable messages rather than panicking deep inside
// request handling.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds validated environment configuration for the room service.
type Config struct {
	// Listen port; defaults to 8080 when PORT is unset
	Port string

	// Optional, defaulted
	GoEnv    string
	LogLevel string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	AllowedOrigins string

	RoomCleanupGrace  time.Duration
	ReactionWindow    time.Duration
	BoardGenTimeBudget time.Duration
	OutboundQueueDepth int
	HeartbeatInterval  time.Duration

	OtelCollectorAddr string
}

// ValidateEnv validates all environment variables the service needs and
// returns a Config, or a single aggregated error naming every problem
// found.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	} else if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
	}

	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	if cfg.RedisEnabled {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
			slog.Warn("REDIS_ADDR not set, using default", "addr", cfg.RedisAddr)
		} else if !isValidHostPort(cfg.RedisAddr) {
			errs = append(errs, fmt.Sprintf("REDIS_ADDR must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.AllowedOrigins = getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	cfg.OtelCollectorAddr = getEnvOrDefault("OTEL_COLLECTOR_ADDR", "")

	cfg.RoomCleanupGrace = durationOrDefault("ROOM_CLEANUP_GRACE_MS", 5*time.Second)
	cfg.ReactionWindow = durationOrDefault("REACTION_WINDOW_MS", 100*time.Millisecond)
	cfg.BoardGenTimeBudget = durationOrDefault("BOARDGEN_TIME_BUDGET_MS", 60*time.Second)
	cfg.HeartbeatInterval = durationOrDefault("HEARTBEAT_INTERVAL_MS", 20*time.Second)

	cfg.OutboundQueueDepth = intOrDefault("OUTBOUND_QUEUE_DEPTH", 64)
	if cfg.OutboundQueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("OUTBOUND_QUEUE_DEPTH must be >= 1 (got %d)", cfg.OutboundQueueDepth))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)
	return cfg, nil
}

func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	port, err := strconv.Atoi(parts[1])
	return err == nil && port >= 1 && port <= 65535
}

func logValidatedConfig(cfg *Config) {
	slog.Info("environment configuration validated",
		"port", cfg.Port,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", redactAddr(cfg.RedisEnabled, cfg.RedisAddr),
		"room_cleanup_grace", cfg.RoomCleanupGrace,
		"reaction_window", cfg.ReactionWindow,
		"boardgen_time_budget", cfg.BoardGenTimeBudget,
	)
}

func redactAddr(enabled bool, addr string) string {
	if !enabled {
		return ""
	}
	return addr
}

func getEnvOrDefault(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

func intOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
