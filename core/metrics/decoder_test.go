package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	metrics "github.com/kilianp07/fleetops/core/metrics"
	_ "github.com/kilianp07/fleetops/infra/metrics"
)

func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: nop
prometheus_port: "9100"
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	assert.IsType(t, &metrics.MultiSink{}, s)
}

func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &cfg))
	_, err := metrics.NewMetricsSink(cfg.Sinks)
	assert.Error(t, err)
}
