package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
  max_upload_bytes: 1024
extract:
  formatted_values: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.MaxUploadBytes != 1024 {
		t.Errorf("max_upload_bytes: got %d", cfg.Server.MaxUploadBytes)
	}
	if !cfg.Extract.FormattedValues {
		t.Error("formatted_values should be true")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level: got %q, want info", cfg.Log.Level)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
export:
  output_dir: "./exports"
watch:
  directories: ["./inbox"]
  output_dir: "./outbox"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "exports"); cfg.Export.OutputDir != want {
		t.Errorf("export output_dir = %s, want %s", cfg.Export.OutputDir, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
	if want := filepath.Join(dir, "outbox"); cfg.Watch.OutputDir != want {
		t.Errorf("watch output_dir = %s, want %s", cfg.Watch.OutputDir, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("default max upload: got %d", cfg.Server.MaxUploadBytes)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[0] != ".xlsx" || cfg.Watch.Extensions[1] != ".xls" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Watch.Workers != 4 {
		t.Errorf("watch workers: got %d", cfg.Watch.Workers)
	}
	if cfg.Export.OutputDir != "" {
		t.Errorf("export output dir should stay empty (working directory): got %q", cfg.Export.OutputDir)
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_false", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
	t.Run("true_returns_true", func(t *testing.T) {
		v := true
		w := &WatchConfig{Recursive: &v}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"./rel", filepath.Join("/cfg", "rel")},
		{".", "/cfg"},
		{"plain/rel", "plain/rel"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in, "/cfg"); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
