package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // .hcl file or directory

	// Root and BaseURL override the manifest's fetcher block.
	Root    string
	BaseURL string
	Timeout time.Duration

	Trace           bool
	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	if cfg.Root != "" && cfg.BaseURL != "" {
		return nil, errors.New("Root and BaseURL are mutually exclusive")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("Timeout cannot be negative")
	}
	return &cfg, nil
}
