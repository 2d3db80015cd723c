package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/flexbt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "btc_trading.csv", cfg.Backtest.Input)
	assert.Equal(t, "flexbt_result.csv", cfg.Backtest.Output)
	assert.Equal(t, 1000.0, cfg.Backtest.InitialUSD)
	assert.Equal(t, "flexbt.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Len(t, policy, 8)
}

func TestLoad_MissingExplicitPathFails(t *testing.T) {
	_, err := Load("does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoad_YAMLAndPolicy(t *testing.T) {
	yamlText := `
backtest:
  input: events.csv
  initial_usd: 5000
  policy:
    "": {position: flat}
    "tempeture_index": {position: spot, ratio: 0.5}
    "ADX|tempeture_index": {position: long_2x}
storage:
  dsn: ":memory:"
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "events.csv", cfg.Backtest.Input)
	assert.Equal(t, 5000.0, cfg.Backtest.InitialUSD)
	assert.Equal(t, "debug", cfg.Log.Level)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	require.Len(t, policy, 3)

	entry, ok := policy.Lookup(domain.NewSignalSet("tempeture_index"))
	require.True(t, ok)
	assert.Equal(t, domain.PositionSpot, entry.Position)
	assert.Equal(t, 0.5, entry.Ratio)

	// El orden dentro de la clave no importa.
	entry, ok = policy.Lookup(domain.NewSignalSet("tempeture_index", "ADX"))
	require.True(t, ok)
	assert.Equal(t, domain.PositionLong2x, entry.Position)
	assert.Equal(t, 1.0, entry.Ratio)
}

func TestPolicy_InvalidPosition(t *testing.T) {
	cfg := &Config{}
	cfg.Backtest.Policy = map[string]PolicyEntry{
		"ADX": {Position: "moon"},
	}
	_, err := cfg.Policy()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moon")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}
