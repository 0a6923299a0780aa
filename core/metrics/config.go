package metrics

import "github.com/kilianp07/fleetops/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusPort, when set, serves /metrics on its own listener in
	// addition to the API router.
	PrometheusPort string `json:"prometheus_port" yaml:"prometheus_port"`
}
