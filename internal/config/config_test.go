package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Mode:           ModeDryRun,
		Source:         SourceFile,
		SeriesFile:     "series.yaml",
		Lookback:       8,
		Cooldown:       time.Hour,
		MinDrift:       0.02,
		DecisionsPath:  "decisions.ndjson",
		CheckpointPath: "checkpoint.json",
		PaperBaseURL:   "https://paper-api.alpaca.markets",
		LogLevel:       "info",
	}
}

func TestValidateConfigAcceptsValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.Mode = "live" }},
		{"source", func(c *Config) { c.Source = "kafka" }},
		{"sqlite without db path", func(c *Config) { c.Source = SourceSQLite; c.DBPath = "" }},
		{"lookback", func(c *Config) { c.Lookback = 1 }},
		{"negative cooldown", func(c *Config) { c.Cooldown = -time.Second }},
		{"min drift above one", func(c *Config) { c.MinDrift = 1.5 }},
		{"negative max notional", func(c *Config) { c.MaxNotional = -1 }},
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"paper without credentials", func(c *Config) { c.Mode = ModePaper }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, ModeDryRun, cfg.Mode)
	assert.Equal(t, SourceFile, cfg.Source)
	assert.Equal(t, 8, cfg.Lookback)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 12*time.Hour, cfg.Cooldown)
}

func TestLoadArgsPaperModeReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APCA_API_KEY_ID=from_file\nAPCA_API_SECRET_KEY=shh\n"), 0o600))

	t.Setenv("APCA_API_KEY_ID", "from_env")
	require.NoError(t, os.Unsetenv("APCA_API_SECRET_KEY"))
	t.Cleanup(func() { _ = os.Unsetenv("APCA_API_SECRET_KEY") })

	cfg, err := LoadArgs([]string{"--mode", "paper", "--source", "sqlite", "--db-path", "x.db", "--min-drift", "0.1"})
	require.NoError(t, err)
	assert.Equal(t, ModePaper, cfg.Mode)
	assert.Equal(t, "from_env", cfg.APIKey, "environment wins over .env")
	assert.Equal(t, "shh", cfg.APISecret)
	assert.Equal(t, 0.1, cfg.MinDrift)
}

func TestLoadArgsRejectsUnknownFlag(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := LoadArgs([]string{"--nope"})
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
