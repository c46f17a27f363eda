// Package config loads runtime settings for the enrichment pipeline from an
// optional YAML file, with sensible defaults for everything.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "NEWSENRICH_CONFIG"

// Config holds the runtime settings of the pipeline.
type Config struct {
	InputSheet      string `yaml:"input_sheet"`
	OutputSheet     string `yaml:"output_sheet"`
	CachePath       string `yaml:"cache_path"`
	WorkDir         string `yaml:"work_dir"`
	SaveFrequency   int    `yaml:"save_frequency"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MinContentChars int    `yaml:"min_content_chars"`
	Workers         int    `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		InputSheet:      "Datos",
		OutputSheet:     "Datos_enriquecidos",
		CachePath:       "cache_noticias.db",
		WorkDir:         ".",
		SaveFrequency:   10,
		TimeoutSeconds:  20,
		MinContentChars: 200,
		Workers:         1,
	}
}

// Load reads configuration from path. An empty path falls back to the
// NEWSENRICH_CONFIG environment variable, then to ~/.newsenrich/config.yaml.
// A missing file is not an error: the defaults apply, and any field absent
// from the file keeps its default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(homeDir, ".newsenrich", "config.yaml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	merge(&cfg, loaded)
	return cfg, nil
}

// merge applies the non-zero fields of loaded over the defaults.
func merge(cfg *Config, loaded Config) {
	if loaded.InputSheet != "" {
		cfg.InputSheet = loaded.InputSheet
	}
	if loaded.OutputSheet != "" {
		cfg.OutputSheet = loaded.OutputSheet
	}
	if loaded.CachePath != "" {
		cfg.CachePath = loaded.CachePath
	}
	if loaded.WorkDir != "" {
		cfg.WorkDir = loaded.WorkDir
	}
	if loaded.SaveFrequency > 0 {
		cfg.SaveFrequency = loaded.SaveFrequency
	}
	if loaded.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = loaded.TimeoutSeconds
	}
	if loaded.MinContentChars > 0 {
		cfg.MinContentChars = loaded.MinContentChars
	}
	if loaded.Workers > 0 {
		cfg.Workers = loaded.Workers
	}
}
