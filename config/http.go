package config

import (
	"fmt"
	"time"
)

// HTTPConfig configures the JSON API.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// Token, when set, must be presented as a bearer token on /api/v1.
	Token              string   `json:"token"`
	CORSOrigins        []string `json:"cors_origins"`
	ReadTimeoutSeconds int      `json:"read_timeout_seconds"`
	// MetricsPath exposes the Prometheus registry. Empty disables it.
	MetricsPath string `json:"metrics_path"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 15
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
}

// Validate checks mandatory fields.
func (c HTTPConfig) Validate() error {
	if c.ReadTimeoutSeconds < 0 {
		return fmt.Errorf("read_timeout_seconds must be positive")
	}
	return nil
}

// ReadTimeout returns the request read timeout.
func (c HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// PlanningConfig holds calendar settings.
type PlanningConfig struct {
	// Timezone resolves "today" when a command omits its date.
	Timezone string `json:"timezone"`
}

// SetDefaults applies sane defaults.
func (c *PlanningConfig) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Validate checks the timezone name.
func (c PlanningConfig) Validate() error {
	_, err := time.LoadLocation(c.Timezone)
	return err
}

// Location returns the configured timezone, falling back to time.Local.
func (c PlanningConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
