package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetOutput(os.Stdout)
	_ = Configure("info", "")
}

func TestZerologLoggerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(reset)
	require.NoError(t, Configure("debug", "json"))
	SetOutput(&buf)

	l := NewZerologLogger("lines")
	l.Infow("line confirmed", map[string]any{"line_id": 7, "actor": "ops"})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "lines", rec["component"])
	assert.Equal(t, "line confirmed", rec["message"])
	assert.Equal(t, "ops", rec["actor"])
	assert.EqualValues(t, 7, rec["line_id"])
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(reset)
	require.NoError(t, Configure("warn", "json"))
	SetOutput(&buf)

	l := New("test")
	l.Debugf("debug %d", 1)
	l.Infof("info %s", "x")
	assert.Zero(t, buf.Len())
	l.Warnf("warn")
	assert.NotZero(t, buf.Len())
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestConfigureRejectsUnknownValues(t *testing.T) {
	assert.Error(t, Configure("loud", "json"))
	assert.Error(t, Configure("info", "xml"))
}

func TestNopLogger(t *testing.T) {
	l := OrNop(nil)
	l.Debugf("x")
	l.Debugw("x", nil)
	l.Infow("x", map[string]any{"k": 1})
	l.Errorf("x")
}
