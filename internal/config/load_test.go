package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets environment variables for the duration of a test and
// points the data directory at a temp dir so no user config is picked up.
func setupEnv(t *testing.T, envVars map[string]string) string {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv(EnvPrefix+"_DATA_DIR", dataDir)
	for name, value := range envVars {
		t.Setenv(name, value)
	}
	return dataDir
}

// TestLoadDefaults verifies the defaults applied when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	dataDir := setupEnv(t, nil)

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dataDir, "lazycard.db"), cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 2.5, cfg.Scheduler.InitialEasiness)
	assert.Equal(t, 1.3, cfg.Scheduler.MinEasiness)
	assert.Equal(t, 1.0, cfg.Scheduler.MinIntervalDays)
	assert.Equal(t, 36500.0, cfg.Scheduler.MaxIntervalDays)
	assert.Equal(t, 4, cfg.Scheduler.SuccessQuality)
	assert.True(t, cfg.Session.Shuffle)
	assert.Equal(t, time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, filepath.Join(dataDir, "backups"), cfg.Backup.Dir)
	assert.Equal(t, 10, cfg.Backup.Keep)
	assert.Equal(t, 4, cfg.Dispatcher.Workers)
}

// TestLoadFromEnv verifies that environment variables override defaults.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"LAZYCARD_LOG_LEVEL":                   "debug",
		"LAZYCARD_SERVER_PORT":                 "9090",
		"LAZYCARD_DATABASE_PATH":               "/tmp/cards.db",
		"LAZYCARD_SCHEDULER_MAX_INTERVAL_DAYS": "365",
		"LAZYCARD_SESSION_SHUFFLE":             "false",
		"LAZYCARD_BACKUP_FORMAT":               "yaml",
	})

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/cards.db", cfg.Database.Path)
	assert.Equal(t, 365.0, cfg.Scheduler.MaxIntervalDays)
	assert.False(t, cfg.Session.Shuffle)
	assert.Equal(t, "yaml", cfg.Backup.Format)
}

func TestLoadFromFile(t *testing.T) {
	dataDir := setupEnv(t, map[string]string{
		"LAZYCARD_SERVER_PORT": "7070",
	})
	file := filepath.Join(dataDir, "custom.yaml")
	content := []byte("server:\n  port: 6060\n  host: 0.0.0.0\nbackup:\n  keep: 3\n")
	require.NoError(t, os.WriteFile(file, content, 0o600))

	cfg, err := Load(file)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port, "env should win over file")
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3, cfg.Backup.Keep)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	setupEnv(t, nil)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestLoadValidationErrors verifies that invalid values are rejected.
func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid log level", map[string]string{"LAZYCARD_LOG_LEVEL": "loud"}},
		{"invalid port", map[string]string{"LAZYCARD_SERVER_PORT": "70000"}},
		{"invalid driver", map[string]string{"LAZYCARD_DATABASE_DRIVER": "oracle"}},
		{"postgres without url", map[string]string{"LAZYCARD_DATABASE_DRIVER": "postgres"}},
		{"ceiling below floor", map[string]string{"LAZYCARD_SCHEDULER_MAX_INTERVAL_DAYS": "0.5"}},
		{"easiness below floor", map[string]string{"LAZYCARD_SCHEDULER_INITIAL_EASINESS": "1.0"}},
		{"ceiling past storable range", map[string]string{"LAZYCARD_SCHEDULER_MAX_INTERVAL_DAYS": "200000"}},
		{"easiness floor below one", map[string]string{
			"LAZYCARD_SCHEDULER_MIN_EASINESS":     "0.5",
			"LAZYCARD_SCHEDULER_INITIAL_EASINESS": "0.9",
		}},
		{"quality out of range", map[string]string{"LAZYCARD_SCHEDULER_SUCCESS_QUALITY": "2"}},
		{"zero workers", map[string]string{"LAZYCARD_DISPATCHER_WORKERS": "0"}},
		{"zero keep", map[string]string{"LAZYCARD_BACKUP_KEEP": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t, tt.env)

			cfg, err := Load("")

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}
