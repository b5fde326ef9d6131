// Package config resolves process configuration from the environment once at
// startup. The conversion secret is injected into the pipeline from here;
// nothing else in the codebase reads credentials from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultListenAddr is used when neither ADDR nor PORT is set.
	DefaultListenAddr = ":8080"

	// DefaultJobTimeout bounds one conversion job end to end.
	DefaultJobTimeout = 3 * time.Minute

	// DefaultUpstreamRate caps upstream calls per second.
	DefaultUpstreamRate = 10
)

// Config is the resolved process configuration.
type Config struct {
	// Secret authenticates against the upstream conversion service
	// (CONVERT_API_SECRET). Its absence is checked before any job runs.
	Secret string

	// BaseURL overrides the upstream endpoint (CONVERT_API_URL), used by
	// tests and self-hosted deployments.
	BaseURL string

	ListenAddr   string
	JobTimeout   time.Duration
	UpstreamRate float64
}

// FromEnv resolves the configuration from environment variables, applying
// defaults for everything except the secret.
func FromEnv() *Config {
	cfg := &Config{
		Secret:       os.Getenv("CONVERT_API_SECRET"),
		BaseURL:      os.Getenv("CONVERT_API_URL"),
		ListenAddr:   DefaultListenAddr,
		JobTimeout:   DefaultJobTimeout,
		UpstreamRate: DefaultUpstreamRate,
	}

	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.ListenAddr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.ListenAddr = ":" + port
	}

	if raw := os.Getenv("CONVERT_TIMEOUT_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			cfg.JobTimeout = time.Duration(seconds) * time.Second
		}
	}

	if raw := os.Getenv("CONVERT_UPSTREAM_RATE"); raw != "" {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil && rate > 0 {
			cfg.UpstreamRate = rate
		}
	}

	return cfg
}
