package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `storage:
  type: postgres
  conf:
    dsn: "postgres://fleet@localhost/fleet"
http:
  addr: ":9000"
  token: "secret"
  cors_origins: ["http://localhost:3000"]
planning:
  timezone: "Europe/Lisbon"
mqtt:
  broker: "tcp://localhost:1883"
  topic_prefix: "depot"
  qos: 1
metrics:
  sinks:
    - type: "nop"
logging:
  level: debug
  format: console
sentry:
  dsn: "https://key@sentry.example/1"
  traces_sample_rate: 0.2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://fleet@localhost/fleet", cfg.Storage.Conf["dsn"])
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "secret", cfg.HTTP.Token)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "Europe/Lisbon", cfg.Planning.Location().String())
	assert.Equal(t, "depot", cfg.MQTT.TopicPrefix)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.True(t, cfg.MQTTEnabled())
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "nop", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.2, cfg.Sentry.TracesSampleRate)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.json", `{}`))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "fleetops.db", cfg.Storage.Conf["path"])
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/metrics", cfg.HTTP.MetricsPath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "fleetops", cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.MQTTEnabled())
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_HTTP__ADDR", ":7070")
	t.Setenv("K_LOGGING__LEVEL", "warn")
	t.Setenv("K_HTTP__METRICS_PATH", "/prom")
	cfg, err := Load(writeFile(t, "config.yaml", "http:\n  addr: \":9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/prom", cfg.HTTP.MetricsPath)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", ""))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.yaml", "storage:\n  type: mongo\nlogging:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage")
	assert.Contains(t, err.Error(), "logging")

	_, err = Load(writeFile(t, "config.yaml", "planning:\n  timezone: Mars/Olympus\n"))
	assert.Error(t, err)
}
