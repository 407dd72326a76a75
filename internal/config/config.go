package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration read from environment variables.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	ArchiveDatabaseURL string
	// TimerCheckInterval is the period of the timeout sweep; zero disables it.
	TimerCheckInterval time.Duration
	DefaultTimeControl string
	TimeControlsFile   string
	LockTTL            time.Duration
	// RateLimitPerMinute caps requests per client; zero disables limiting.
	RateLimitPerMinute int
	CORSOrigins        []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getenvDefault("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		ArchiveDatabaseURL: os.Getenv("ARCHIVE_DATABASE_URL"),
		DefaultTimeControl: getenvDefault("DEFAULT_TIME_CONTROL", "rapid"),
		TimeControlsFile:   os.Getenv("TIME_CONTROLS_FILE"),
		CORSOrigins:        splitList(getenvDefault("CORS_ORIGINS", "*")),
	}
	if cfg.ArchiveDatabaseURL == "" {
		cfg.ArchiveDatabaseURL = cfg.DatabaseURL
	}

	var err error
	if cfg.TimerCheckInterval, err = durationEnv("TIMER_CHECK_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.LockTTL, err = durationEnv("LOCK_TTL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("LOCK_TTL must be positive")
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MINUTE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE: invalid value %q", raw)
		}
		cfg.RateLimitPerMinute = n
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, raw)
	}
	return d, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
