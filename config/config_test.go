package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_MissingFileUsesDefaults verifies a nonexistent path is fine
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoad_OverridesFromFile verifies file values win over defaults and
// absent fields keep their defaults
func TestLoad_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache_path: "/var/cache/noticias.db"
save_frequency: 25
workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/noticias.db", cfg.CachePath)
	assert.Equal(t, 25, cfg.SaveFrequency)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, Default().InputSheet, cfg.InputSheet, "absent field keeps default")
	assert.Equal(t, Default().MinContentChars, cfg.MinContentChars)
}

// TestLoad_InvalidYAML verifies parse errors surface
func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_sheet: [not: valid"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoad_EnvironmentOverride verifies NEWSENRICH_CONFIG selects the file
func TestLoad_EnvironmentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`output_sheet: "Enriquecidas"`), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Enriquecidas", cfg.OutputSheet)
}
