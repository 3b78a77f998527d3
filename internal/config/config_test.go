package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"peopledesk"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	assert.Equal(t, 100_000, c.HashIterations)
	assert.Equal(t, 6, c.MinPasswordLength)
	assert.Equal(t, 10, c.DBWorkers)
	assert.Equal(t, 4, c.IOWorkers)
	assert.Equal(t, 30*time.Minute, c.SessionTokenTTL)
	assert.Equal(t, "admin", c.BootstrapAdminUser)
	assert.NotEmpty(t, c.DatabaseDSN)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	resetArgs(t, "-d", "postgres://u:p@db:5432/x", "-m", "8", "-t", "5")

	c := LoadConfig()

	assert.Equal(t, "postgres://u:p@db:5432/x", c.DatabaseDSN)
	assert.Equal(t, 8, c.MinPasswordLength)
	assert.Equal(t, 5*time.Minute, c.SessionTokenTTL)
	// untouched fields keep defaults
	assert.Equal(t, 100_000, c.HashIterations)
}

func TestParseEnv_Overlay(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env@db/env")
	t.Setenv("HASH_ITERATIONS", "200000")
	t.Setenv("SESSION_TOKEN_TTL", "90s")

	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)

	assert.Equal(t, "postgres://env@db/env", c.DatabaseDSN)
	assert.Equal(t, 200000, c.HashIterations)
	assert.Equal(t, 90*time.Second, c.SessionTokenTTL)
}

func TestParseEnv_IgnoresMalformedInt(t *testing.T) {
	t.Setenv("DB_WORKERS", "lots")

	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)

	assert.Equal(t, 10, c.DBWorkers)
}

func TestParseJson_PartialOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")

	payload := map[string]any{
		"database_dsn":      "postgres://json@db/json",
		"queue_depth":       128,
		"session_token_ttl": "15m",
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	resetArgs(t, "-c", path)

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, "postgres://json@db/json", c.DatabaseDSN)
	assert.Equal(t, 128, c.QueueDepth)
	assert.Equal(t, 15*time.Minute, c.SessionTokenTTL)
	// fields absent from the file keep defaults
	assert.Equal(t, 6, c.MinPasswordLength)
}

func TestParseJson_NoFileFlag(t *testing.T) {
	resetArgs(t)

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, 100_000, c.HashIterations)
}
