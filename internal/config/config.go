package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset configuration. Paths may be local files or http(s) URLs.
	DirectoryCSV   string
	EventsCSV      string
	ReloadInterval time.Duration // 0 disables the refresher

	// Geocoding configuration.
	GeocodeBaseURL   string
	GeocodeTimeout   time.Duration
	GeocodeDelay     time.Duration
	GeocodeCachePath string // "" disables the durable cache

	// Admin commit configuration. Admin routes are enabled only when owner
	// and repo are both set.
	GitHubBaseURL      string
	GitHubOwner        string
	GitHubRepo         string
	GitHubBranch       string
	AdminRatePerMinute int
}

// AdminEnabled reports whether the admin commit flow is configured.
func (c *Config) AdminEnabled() bool {
	return c.GitHubOwner != "" && c.GitHubRepo != ""
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	reloadInterval, err := parseDuration("RELOAD_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeDelay, err := parseDuration("GEOCODE_DELAY", "450ms")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DirectoryCSV:   envOrDefault("DIRECTORY_CSV", "data/directory.csv"),
		EventsCSV:      envOrDefault("EVENTS_CSV", "data/events.csv"),
		ReloadInterval: reloadInterval,

		GeocodeBaseURL:   envOrDefault("GEOCODE_BASE_URL", "https://api.zippopotam.us"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeDelay:     geocodeDelay,
		GeocodeCachePath: envOrDefault("GEOCODE_CACHE_PATH", "geocode-cache.db"),

		GitHubBaseURL:      envOrDefault("GITHUB_BASE_URL", "https://api.github.com"),
		GitHubOwner:        os.Getenv("GITHUB_OWNER"),
		GitHubRepo:         os.Getenv("GITHUB_REPO"),
		GitHubBranch:       envOrDefault("GITHUB_BRANCH", "main"),
		AdminRatePerMinute: parseAdminRate(),
	}

	if cfg.DirectoryCSV == "" {
		return nil, errors.New("DIRECTORY_CSV is required")
	}
	if cfg.GitHubOwner != "" && cfg.GitHubRepo == "" {
		return nil, errors.New("GITHUB_OWNER is set but GITHUB_REPO is not")
	}
	if cfg.GitHubRepo != "" && cfg.GitHubOwner == "" {
		return nil, errors.New("GITHUB_REPO is set but GITHUB_OWNER is not")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseAdminRate() int {
	if s := os.Getenv("ADMIN_RATE_PER_MINUTE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 6
}
