package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// clearEnv unsets every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		name := EnvVar(key)
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "UPKEEP_LOG_LEVEL", EnvVar(KeyLogLevel))
	assert.Equal(t, "UPKEEP_DATA_DIR", EnvVar(KeyDataDir))
	assert.Equal(t, "UPKEEP_LISTING_CANDIDATE_FILTER", EnvVar(KeyCandidateFilter))
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested", "upkeep")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, fileName))
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Empty(t, cfg.DataDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, maintenance.FilterActivePlan, cfg.CandidateFilter)
	assert.Zero(t, cfg.BusyTimeout)
}

func TestLoad_ExistingFileIsKept(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, fileName, "data_dir: /srv/upkeep\nbusy_timeout: 2s\nlog:\n  level: debug\n  format: json\nlisting:\n  candidate_filter: template\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/upkeep", cfg.DataDir)
	assert.Equal(t, 2*time.Second, cfg.BusyTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, maintenance.FilterTemplate, cfg.CandidateFilter)

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "/srv/upkeep")

	st := cfg.Store("/data")
	assert.Equal(t, types.Config{Backend: types.BackendSQLite, DataDir: "/data", BusyTimeout: 2 * time.Second}, st)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, fileName, "log:\n  level: info\n  format: json\n")
	writeFile(t, dir, envFile, "UPKEEP_LOG_LEVEL=debug\nUPKEEP_LOG_FORMAT=console\n")

	t.Run(".env overrides config.yaml", func(t *testing.T) {
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run("environment overrides .env", func(t *testing.T) {
		t.Setenv("UPKEEP_LOG_LEVEL", "error")
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run(".env does not leak into the process", func(t *testing.T) {
		_, err := Load(dir)
		require.NoError(t, err)
		_, set := os.LookupEnv("UPKEEP_LOG_FORMAT")
		assert.False(t, set)
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown backend", yaml: "backend: postgres\n"},
		{name: "unknown candidate filter", yaml: "listing:\n  candidate_filter: everything\n"},
		{name: "bad busy timeout", yaml: "busy_timeout: soon\n"},
		{name: "bad filter from env", yaml: "backend: sqlite\n", env: map[string]string{"UPKEEP_LISTING_CANDIDATE_FILTER": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			writeFile(t, dir, fileName, tt.yaml)
			_, err := Load(dir)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeFile(t, dir, fileName, "log: [unterminated\n")
		_, err := Load(dir)
		assert.Error(t, err)
	})
}
