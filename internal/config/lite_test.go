package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "http://localhost:8000", cfg.ClassifierURL)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	// Clear relevant env vars
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 30*time.Second, cfg.ClassifierTimeout)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables
	os.Setenv("CDS_DATA_DIR", "/tmp/test-cds")
	os.Setenv("CDS_CACHE_MAX_ITEMS", "500")
	os.Setenv("CDS_CACHE_TTL", "12h")
	os.Setenv("CDS_CLASSIFIER_URL", "http://model:9000")
	os.Setenv("CDS_HTTP_PORT", "9090")
	os.Setenv("CDS_LOG_LEVEL", "debug")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-cds", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "http://model:9000", cfg.ClassifierURL)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLiteConfig_FeedbackDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.pneumonia-cds"}

	path := cfg.FeedbackDBPath()

	assert.Equal(t, "/home/user/.pneumonia-cds/feedback.db", path)
}

func TestLiteConfig_ExportDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.pneumonia-cds"}

	path := cfg.ExportDir()

	assert.Equal(t, "/home/user/.pneumonia-cds/exports", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "cds")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	// Verify directories exist
	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"CDS_DATA_DIR",
		"CDS_CACHE_MAX_ITEMS",
		"CDS_CACHE_TTL",
		"CDS_CLASSIFIER_URL",
		"CDS_CLASSIFIER_TIMEOUT",
		"CDS_HTTP_PORT",
		"CDS_LOG_LEVEL",
		"CDS_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
