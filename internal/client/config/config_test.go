package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "fieldsync.db", cfg.DBPath)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 10*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 2*time.Second, cfg.SaveDelay)
	assert.Zero(t, cfg.SaveFailureRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.ManualConnectivity())
	assert.False(t, cfg.StartOffline)
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse([]string{
		"--db-path", "/tmp/x.db",
		"--probe-addr", "10.0.0.1:50051",
		"--online-check-interval", "10s",
		"--save-failure-rate", "0.25",
		"--log-level", "debug",
		"--start-offline",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "10.0.0.1:50051", cfg.ProbeAddr)
	assert.False(t, cfg.ManualConnectivity())
	assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 0.25, cfg.SaveFailureRate)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.StartOffline)
}

func TestParse_JSONFileAndFlagPrecedence(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
		"db_path": "from-json.db",
		"save_delay": "500ms",
		"log_format": "json"
	}`)

	cfg, err := Parse([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "from-json.db", cfg.DBPath)
	assert.Equal(t, 500*time.Millisecond, cfg.SaveDelay)
	assert.Equal(t, "json", cfg.LogFormat)

	cfg, err = Parse([]string{"--config", path, "--db-path", "from-flag.db"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.DBPath)
	assert.Equal(t, 500*time.Millisecond, cfg.SaveDelay)
}

func TestParse_Env(t *testing.T) {
	t.Setenv("FIELDSYNC_DB_PATH", "from-env.db")
	t.Setenv("FIELDSYNC_SUBMIT_TIMEOUT", "4s")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.DBPath)
	assert.Equal(t, 4*time.Second, cfg.SubmitTimeout)

	cfg, err = Parse([]string{"--db-path", "from-flag.db"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.DBPath)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string][]string{
		"unknown level":   {"--log-level", "trace"},
		"bad duration":    {"--save-delay", "soon"},
		"rate above one":  {"--save-failure-rate", "1.5"},
		"zero interval":   {"--online-check-interval", "0s"},
		"missing db path": {"--db-path", ""},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(args)
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	cfg.SaveDelay = -time.Second
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "FIELDSYNC_PROBE_SERVICE=fieldsync.Gateway\n")
	t.Setenv("FIELDSYNC_PROBE_SERVICE", "")
	require.NoError(t, os.Unsetenv("FIELDSYNC_PROBE_SERVICE"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "fieldsync.Gateway", cfg.ProbeService)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := writeFile(t, ".env", "FIELDSYNC_LOG_LEVEL=debug\n")
	t.Setenv("FIELDSYNC_LOG_LEVEL", "warn")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
