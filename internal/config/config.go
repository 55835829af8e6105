package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/golang/geo/s2"
)

// Config holds all viewer settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Seismic API configuration.
	APIBaseURL string
	APITimeout time.Duration

	// Viewer session configuration.
	DefaultMode        string
	DetailCacheSize    int
	SessionIdleTimeout time.Duration

	// Initial map view.
	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int
	MapMinZoom   int
	MapMaxZoom   int

	// Activity stream configuration.
	ActivityEnabled    bool
	KafkaBrokers       []string
	KafkaActivityTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	idleTimeout, err := parsePositiveDuration("SESSION_IDLE_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("DETAIL_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", 37.7749)
	if err != nil {
		return nil, err
	}
	centerLon, err := parseFloat("MAP_CENTER_LON", -122.4194)
	if err != nil {
		return nil, err
	}
	zoom, err := parsePositiveInt("MAP_ZOOM", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":3000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		APIBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("API_BASE_URL", "http://localhost:8080/api"), "/"),
		APITimeout: apiTimeout,

		DefaultMode:        sharedcfg.EnvOrDefault("DEFAULT_MODE", "earthquakes"),
		DetailCacheSize:    cacheSize,
		SessionIdleTimeout: idleTimeout,

		MapCenterLat: centerLat,
		MapCenterLon: centerLon,
		MapZoom:      zoom,
		MapMinZoom:   2,
		MapMaxZoom:   10,

		ActivityEnabled:    os.Getenv("ACTIVITY_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaActivityTopic: strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_ACTIVITY_TOPIC", "viewer-activity")),
	}

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API_BASE_URL %q", cfg.APIBaseURL)
	}
	if cfg.DefaultMode != "earthquakes" && cfg.DefaultMode != "hotspots" {
		return nil, fmt.Errorf("invalid DEFAULT_MODE %q: must be earthquakes or hotspots", cfg.DefaultMode)
	}
	if !s2.LatLngFromDegrees(cfg.MapCenterLat, cfg.MapCenterLon).IsValid() {
		return nil, errors.New("MAP_CENTER_LAT/MAP_CENTER_LON out of range")
	}
	if cfg.MapZoom < cfg.MapMinZoom || cfg.MapZoom > cfg.MapMaxZoom {
		return nil, fmt.Errorf("invalid MAP_ZOOM: must be between %d and %d", cfg.MapMinZoom, cfg.MapMaxZoom)
	}
	if cfg.ActivityEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("ACTIVITY_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaActivityTopic == "" {
			return nil, errors.New("ACTIVITY_ENABLED is true but KAFKA_ACTIVITY_TOPIC is empty")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
