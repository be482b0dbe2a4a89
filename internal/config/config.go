package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr        string
	DatabaseURL string
	Pool        PoolConfig
	SQLitePath  string
	CatalogPath string
	MaxSessions int
	LogLevel    slog.Level
}

// PoolConfig sizes the Postgres pool behind the report archive.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type WorkerConfig struct {
	DatabaseURL string
	SQLitePath  string
	CatalogPath string
	Days        int
	TickEvery   time.Duration
	RunOnce     bool
	Strategy    StrategyConfig
	LogLevel    slog.Level
}

// StrategyConfig tunes the autoplay shopkeeper.
type StrategyConfig struct {
	RestockBelow    int
	RestockQuantity int
	TargetMarkup    float64
	CashReserve     float64
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("TYCOON_API_ADDR", ":8080")
	}

	level, err := envLogLevel()
	if err != nil {
		return APIConfig{}, err
	}
	cfg := APIConfig{
		Addr:        addr,
		DatabaseURL: databaseURL(),
		Pool: PoolConfig{
			MaxConns:        int32(envIntDefault("TYCOON_DB_MAX_CONNS", 8)),
			MinConns:        int32(envIntDefault("TYCOON_DB_MIN_CONNS", 1)),
			MaxConnLifetime: envDurationDefault("TYCOON_DB_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: envDurationDefault("TYCOON_DB_CONN_IDLE", 10*time.Minute),
		},
		SQLitePath:  strings.TrimSpace(os.Getenv("TYCOON_SQLITE_PATH")),
		CatalogPath: strings.TrimSpace(os.Getenv("TYCOON_CATALOG")),
		MaxSessions: envIntDefault("TYCOON_MAX_SESSIONS", 256),
		LogLevel:    level,
	}
	if cfg.MaxSessions <= 0 {
		return cfg, fmt.Errorf("TYCOON_MAX_SESSIONS must be > 0")
	}
	if cfg.Pool.MaxConns <= 0 || cfg.Pool.MinConns < 0 || cfg.Pool.MinConns > cfg.Pool.MaxConns {
		return cfg, fmt.Errorf("TYCOON_DB_MIN_CONNS must be between 0 and TYCOON_DB_MAX_CONNS (> 0)")
	}
	if cfg.DatabaseURL != "" && cfg.SQLitePath != "" {
		return cfg, fmt.Errorf("set either DATABASE_URL or TYCOON_SQLITE_PATH, not both")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	level, err := envLogLevel()
	if err != nil {
		return WorkerConfig{}, err
	}
	cfg := WorkerConfig{
		DatabaseURL: databaseURL(),
		SQLitePath:  strings.TrimSpace(os.Getenv("TYCOON_SQLITE_PATH")),
		CatalogPath: strings.TrimSpace(os.Getenv("TYCOON_CATALOG")),
		Days:        envIntDefault("TYCOON_WORKER_DAYS", 30),
		TickEvery:   envDurationDefault("TYCOON_WORKER_TICK_EVERY", 0),
		RunOnce:     envBoolDefault("TYCOON_WORKER_RUN_ONCE", false),
		Strategy: StrategyConfig{
			RestockBelow:    envIntDefault("TYCOON_RESTOCK_BELOW", 10),
			RestockQuantity: envIntDefault("TYCOON_RESTOCK_QUANTITY", 20),
			TargetMarkup:    envFloatDefault("TYCOON_TARGET_MARKUP", 40),
			CashReserve:     envFloatDefault("TYCOON_CASH_RESERVE", 400),
		},
		LogLevel: level,
	}
	if cfg.Days <= 0 {
		return cfg, fmt.Errorf("TYCOON_WORKER_DAYS must be > 0")
	}
	if cfg.TickEvery < 0 {
		return cfg, fmt.Errorf("TYCOON_WORKER_TICK_EVERY must not be negative")
	}
	if cfg.DatabaseURL != "" && cfg.SQLitePath != "" {
		return cfg, fmt.Errorf("set either DATABASE_URL or TYCOON_SQLITE_PATH, not both")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("TYCOON_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func databaseURL() string {
	if v := strings.TrimSpace(os.Getenv("TYCOON_DATABASE_URL")); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func envLogLevel() (slog.Level, error) {
	var level slog.Level
	v := envDefault("TYCOON_LOG_LEVEL", "info")
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo, fmt.Errorf("TYCOON_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
