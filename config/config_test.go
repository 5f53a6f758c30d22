package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bockeljd/basement-bets-sub000/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
ledger:
  parser_version: parser-v3
scores:
  base_url: https://scores.example.com
  api_key: from-yaml
storage:
  dsn: /tmp/bets.db
reconcile:
  interval_seconds: 60
  workers: 4
  grading_version: 2
  sport_key: basketball_nba
log:
  level: debug
  format: json
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "parser-v3", cfg.Ledger.ParserVersion)
	assert.Equal(t, "https://scores.example.com", cfg.Scores.BaseURL)
	assert.Equal(t, "/tmp/bets.db", cfg.Storage.DSN)
	assert.Equal(t, 4, cfg.Reconcile.Workers)
	assert.Equal(t, 2, cfg.Reconcile.GradingVersion)
	assert.Equal(t, "basketball_nba", cfg.Reconcile.SportKey)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, "manual", cfg.Ledger.ParserVersion)
	assert.Equal(t, 300, cfg.Reconcile.IntervalSeconds)
	assert.Equal(t, 1, cfg.Reconcile.Workers)
	assert.Equal(t, 1, cfg.Reconcile.GradingVersion)
	assert.Equal(t, "basement-bets.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("SCORES_API_KEY", "from-env")
	t.Setenv("LEDGER_DSN", ":memory:")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load(writeConfig(t, `
scores:
  api_key: from-yaml
storage:
  dsn: file.db
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Scores.APIKey)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
