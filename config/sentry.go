package config

import (
	"fmt"
	"os"
)

// SentryConfig enables error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// Enabled reports whether a DSN is configured.
func (c SentryConfig) Enabled() bool { return c.DSN != "" }

// SetDefaults takes the environment from APP_ENV when unset.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = os.Getenv("APP_ENV")
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0,1]")
	}
	return nil
}
