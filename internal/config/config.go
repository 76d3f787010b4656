package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	ListenAddr          string        // HTTP listen address (e.g. ":8080")
	DatabasePath        string        // SQLite database file
	RedisAddr           string        // Redis for event fan-out, empty means events are only logged
	RedisPassword       string
	EventsChannelPrefix string        // Prefix of the per tournament pub/sub channel
	ShutdownTimeout     time.Duration // Grace period for in-flight requests on shutdown
	RequestTimeout      time.Duration
}

// Load reads the configuration from environment variables, applying defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:          getString("LISTEN_ADDR", ":8080"),
		DatabasePath:        getString("DATABASE_PATH", "beer_pong.db"),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		EventsChannelPrefix: getString("EVENTS_CHANNEL_PREFIX", "beerpong"),
	}

	var err error
	cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive (got %s)", cfg.RequestTimeout)
	}
	return cfg, nil
}

func getString(envKey, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	return defaultVal
}

func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}
