// Package config loads application configuration from a .env file and the
// process environment, with the environment taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults mirror the original deployment.
const (
	defaultAPIBaseURL   = "http://localhost:3001"
	defaultAPITimeout   = 10 * time.Second
	defaultDBPath       = "./data/obraledger.db"
	defaultSyncInterval = 5 * time.Minute
	defaultMetricsAddr  = ":9180"
)

// Config holds everything the daemon needs to run.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// APIBaseURL is the remote authority, e.g. http://localhost:3001.
	APIBaseURL string

	// APITimeout bounds each authority request.
	APITimeout time.Duration

	// SyncInterval is how often the scheduler attempts a sync.
	SyncInterval time.Duration

	// MetricsAddr is the listen address for the Prometheus endpoint.
	MetricsAddr string
}

// Load reads .env (if present) and the environment. A missing .env file is
// not an error; a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", defaultDBPath),
		APIBaseURL:   getEnv("API_BASE_URL", defaultAPIBaseURL),
		APITimeout:   defaultAPITimeout,
		SyncInterval: defaultSyncInterval,
		MetricsAddr:  getEnv("METRICS_ADDR", defaultMetricsAddr),
	}

	if v := os.Getenv("API_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid API_TIMEOUT_SECONDS %q", v)
		}
		cfg.APITimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("SYNC_INTERVAL_MINUTES"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 {
			return nil, fmt.Errorf("invalid SYNC_INTERVAL_MINUTES %q", v)
		}
		cfg.SyncInterval = time.Duration(mins) * time.Minute
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
