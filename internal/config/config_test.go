// Package config provides configuration management for the roster control service.
package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, int64(8<<20), cfg.Server.MaxUploadBytes)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "rosterctl", cfg.Metrics.Namespace)

	// Matching defaults
	assert.Equal(t, 85, cfg.Matching.AutoThreshold)
	assert.Equal(t, 65, cfg.Matching.DetectiveThreshold)

	// Workbook defaults
	assert.Equal(t, "PERSONAL AGREGADO", cfg.Workbook.AnchorMarker)
	assert.Equal(t, "FFFF00", cfg.Workbook.HighlightColor)

	// Rate limit defaults
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("ROSTERCTL_SERVER_HTTP_PORT", "8888")
	t.Setenv("ROSTERCTL_LOGGING_LEVEL", "debug")
	t.Setenv("ROSTERCTL_MATCHING_AUTO_THRESHOLD", "95")
	t.Setenv("ROSTERCTL_MATCHING_DETECTIVE_THRESHOLD", "70")
	t.Setenv("ROSTERCTL_WORKBOOK_ANCHOR_MARKER", "AGREGADOS")
	t.Setenv("ROSTERCTL_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 95, cfg.Matching.AutoThreshold)
	assert.Equal(t, 70, cfg.Matching.DetectiveThreshold)
	assert.Equal(t, "AGREGADOS", cfg.Workbook.AnchorMarker)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_InvalidThresholds(t *testing.T) {
	tests := []struct {
		name      string
		auto      string
		detective string
	}{
		{name: "auto below range", auto: "40", detective: "65"},
		{name: "auto above range", auto: "101", detective: "65"},
		{name: "detective below range", auto: "85", detective: "40"},
		{name: "detective above range", auto: "95", detective: "91"},
		{name: "detective not below auto", auto: "70", detective: "70"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("ROSTERCTL_MATCHING_AUTO_THRESHOLD", tt.auto)
			t.Setenv("ROSTERCTL_MATCHING_DETECTIVE_THRESHOLD", tt.detective)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "matching thresholds")
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ROSTERCTL_LOGGING_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ROSTERCTL_SERVER_HTTP_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP port")
}

func TestValidate_EmptyAnchorMarker(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Workbook.AnchorMarker = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anchor marker")
}

func TestValidate_RateLimit(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.RateLimit.RequestsPerSecond = 0
	err = cfg.Validate()
	require.Error(t, err)

	cfg.RateLimit.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestServerAddresses(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", HTTPPort: 8080, MetricsPort: 9091}
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddress())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "ROSTERCTL_") {
			key := strings.SplitN(env, "=", 2)[0]
			os.Unsetenv(key)
		}
	}
}
