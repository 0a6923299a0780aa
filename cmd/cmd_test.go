package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fleetFile = `
tractors:
  - {id: T1, plate: AA-100}
drivers:
  - {id: D1, name: Ana, tractor: T1}
materials:
  - {id: SAND, name: Sand}
clients:
  - {id: C1, name: Quarry Co}
origins:
  - {id: O1, name: North Pit}
destinations:
  - {id: X1, name: Plant}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("storage:\n  type: sqlite\n  conf:\n    path: "+filepath.Join(dir, "fleet.db")+"\n"), 0o600))
	data := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(data, []byte(fleetFile), 0o600))
	base := []string{"--config", cfg, "--env-file", filepath.Join(dir, "missing.env")}

	out, err := run(t, append([]string{"migrate"}, base...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "sqlite schema up to date")

	out, err = run(t, append([]string{"seed", data}, base...)...)
	require.NoError(t, err, out)

	_, err = run(t, append([]string{"plan", "generate", "--week", "2024-06-10", "--drivers", "D1",
		"--weekdays", "mon,wed", "--material", "SAND", "--actor", ""}, base...)...)
	require.Error(t, err)

	out, err = run(t, append([]string{"plan", "generate", "--week", "2024-06-10", "--drivers", "D1",
		"--weekdays", "mon,wed", "--material", "SAND", "--actor", "ops"}, base...)...)
	require.NoError(t, err, out)
	var res struct {
		Created int `json:"created"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Created)

	out, err = run(t, append([]string{"report", "deviation", "--date", "2024-06-10", "--weekly=false"}, base...)...)
	require.NoError(t, err, out)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "NOT_EXECUTED", rows[0]["result"])

	xlsx := filepath.Join(dir, "plan.xlsx")
	_, err = run(t, append([]string{"export", "plan", "--date", "2024-06-12", "-f", "xlsx", "-o", xlsx}, base...)...)
	require.NoError(t, err)
	st, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, st.Size())

	_, err = run(t, append([]string{"export", "fuel"}, base...)...)
	assert.Error(t, err)
}
