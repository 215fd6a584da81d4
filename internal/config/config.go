package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ExecutorURL      string
	StoreBackend     string
	StorePath        string
	HistoryKey       string
	RedisURL         string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
	Port             int
	StatusClearDelay time.Duration
	LogLevel         string
}

func Load() Config {
	return Config{
		ExecutorURL:      envStr("JARVIS_EXECUTOR_URL", "https://www.sim.ai/api/workflows/0f32eaf4-001f-4283-b574-0a618a8b9cd1/run"),
		StoreBackend:     envStr("JARVIS_STORE", "bolt"),
		StorePath:        envStr("JARVIS_STORE_PATH", "~/.jarvis/jarvis.db"),
		HistoryKey:       envStr("JARVIS_HISTORY_KEY", "jarvis-messages"),
		RedisURL:         envStr("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
		Port:             envInt("JARVIS_PORT", 8760),
		StatusClearDelay: envDuration("JARVIS_STATUS_CLEAR", 3*time.Second),
		LogLevel:         envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
