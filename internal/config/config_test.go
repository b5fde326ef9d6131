package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CONVERT_API_SECRET", "")
	t.Setenv("CONVERT_API_URL", "")
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("CONVERT_TIMEOUT_SECONDS", "")

	cfg := FromEnv()
	assert.Empty(t, cfg.Secret)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultJobTimeout, cfg.JobTimeout)
	assert.Equal(t, float64(DefaultUpstreamRate), cfg.UpstreamRate)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CONVERT_API_SECRET", "s3cret")
	t.Setenv("CONVERT_API_URL", "http://localhost:9999")
	t.Setenv("ADDR", ":9000")
	t.Setenv("CONVERT_TIMEOUT_SECONDS", "45")

	cfg := FromEnv()
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 45*time.Second, cfg.JobTimeout)
}

func TestFromEnvPortFallback(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "3000")

	cfg := FromEnv()
	assert.Equal(t, ":3000", cfg.ListenAddr)
}

func TestFromEnvIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv("CONVERT_TIMEOUT_SECONDS", "-5")

	cfg := FromEnv()
	assert.Equal(t, DefaultJobTimeout, cfg.JobTimeout)
}
