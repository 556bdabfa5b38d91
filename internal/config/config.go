// Package config provides configuration loading and structs for Extractify.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Extract ExtractConfig `yaml:"extract"`
	Export  ExportConfig  `yaml:"export"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LogConfig holds logger settings. Level empty means info (debug when Debug is set).
type LogConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ExtractConfig holds extractor settings.
type ExtractConfig struct {
	// FormattedValues reads xlsx cells as displayed rather than as stored.
	FormattedValues bool `yaml:"formatted_values"`
}

// ExportConfig holds JSON export settings for the extract command. An empty OutputDir
// is the working directory.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// WatchConfig holds drop-folder settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	OutputDir   string   `yaml:"output_dir"`
	Workers     int      `yaml:"workers"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to false when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return false
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Export.OutputDir = expandPath(cfg.Export.OutputDir, configDir)
	cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a config with defaults applied, for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir,
// "~/" is the home directory, and other relative paths are left relative to the working directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
