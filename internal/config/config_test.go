package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, "earthquakes", cfg.DefaultMode)
	assert.Equal(t, 500, cfg.DetailCacheSize)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.InDelta(t, 37.7749, cfg.MapCenterLat, 1e-9)
	assert.InDelta(t, -122.4194, cfg.MapCenterLon, 1e-9)
	assert.Equal(t, 4, cfg.MapZoom)
	assert.Equal(t, 2, cfg.MapMinZoom)
	assert.Equal(t, 10, cfg.MapMaxZoom)
	assert.False(t, cfg.ActivityEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "viewer-activity", cfg.KafkaActivityTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("API_BASE_URL", "https://quakes.example/api/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("DEFAULT_MODE", "hotspots")
	t.Setenv("DETAIL_CACHE_SIZE", "50")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("MAP_CENTER_LAT", "35.6762")
	t.Setenv("MAP_CENTER_LON", "139.6503")
	t.Setenv("MAP_ZOOM", "6")
	t.Setenv("ACTIVITY_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_ACTIVITY_TOPIC", "custom-activity")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://quakes.example/api", cfg.APIBaseURL, "trailing slash trimmed")
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "hotspots", cfg.DefaultMode)
	assert.Equal(t, 50, cfg.DetailCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.InDelta(t, 35.6762, cfg.MapCenterLat, 1e-9)
	assert.InDelta(t, 139.6503, cfg.MapCenterLon, 1e-9)
	assert.Equal(t, 6, cfg.MapZoom)
	assert.True(t, cfg.ActivityEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-activity", cfg.KafkaActivityTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidAPITimeout(t *testing.T) {
	t.Setenv("API_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_TIMEOUT")
}

func TestLoad_NegativeSessionIdleTimeout(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_IDLE_TIMEOUT")
}

func TestLoad_InvalidAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "localhost:8080")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL")
}

func TestLoad_InvalidDetailCacheSize(t *testing.T) {
	t.Setenv("DETAIL_CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DETAIL_CACHE_SIZE")
}

func TestLoad_InvalidDefaultMode(t *testing.T) {
	t.Setenv("DEFAULT_MODE", "volcanoes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_MODE")
}

func TestLoad_MapCenterOutOfRange(t *testing.T) {
	t.Setenv("MAP_CENTER_LAT", "91")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_CENTER")
}

func TestLoad_MapZoomOutOfRange(t *testing.T) {
	t.Setenv("MAP_ZOOM", "12")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_ZOOM")
}

func TestLoad_ActivityEnabledWithoutTopic(t *testing.T) {
	t.Setenv("ACTIVITY_ENABLED", "true")
	t.Setenv("KAFKA_ACTIVITY_TOPIC", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_ACTIVITY_TOPIC")
}

func TestLoad_ActivityDisabledIgnoresKafkaSettings(t *testing.T) {
	t.Setenv("KAFKA_ACTIVITY_TOPIC", " ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.ActivityEnabled)
}
