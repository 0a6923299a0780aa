package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetops/core/factory"
	"github.com/kilianp07/fleetops/core/metrics"
	"github.com/kilianp07/fleetops/infra/mqtt"
)

type Config struct {
	Storage  factory.ModuleConfig `json:"storage"`
	HTTP     HTTPConfig           `json:"http"`
	Planning PlanningConfig       `json:"planning"`
	MQTT     mqtt.Config          `json:"mqtt"`
	Metrics  metrics.Config       `json:"metrics"`
	Logging  LoggingConfig        `json:"logging"`
	Sentry   SentryConfig         `json:"sentry"`
}

// Load reads a YAML or JSON file, applies K_ environment overrides
// (K_HTTP__ADDR=:9090 sets http.addr) and validates the result. An empty
// path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type == "sqlite" {
		if c.Storage.Conf == nil {
			c.Storage.Conf = map[string]any{}
		}
		if _, ok := c.Storage.Conf["path"]; !ok {
			c.Storage.Conf["path"] = "fleetops.db"
		}
	}
	c.HTTP.SetDefaults()
	c.Planning.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "fleetops"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "fleetops"
	}
	if len(c.Metrics.Sinks) == 0 {
		c.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	}
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	var errs []error
	if c.Storage.Type != "sqlite" && c.Storage.Type != "postgres" {
		errs = append(errs, fmt.Errorf("storage: unknown type %q", c.Storage.Type))
	}
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := c.Planning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("planning: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt: qos %d out of range", c.MQTT.QoS))
	}
	if err := c.Sentry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sentry: %w", err))
	}
	return errors.Join(errs...)
}

// MQTTEnabled reports whether lifecycle events should be bridged to a broker.
func (c Config) MQTTEnabled() bool { return c.MQTT.Broker != "" }
