package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/config"
	"github.com/kilianp07/fleetops/core/factory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Storage: factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "fleet.db")}},
	}
	cfg.SetDefaults()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceWiring(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))

	rr := httptest.NewRecorder()
	svc.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	svc.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = factory.ModuleConfig{Type: "mongo"}
	_, err := New(cfg)
	assert.Error(t, err)
}
