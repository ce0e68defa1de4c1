package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"pagesource/internal/platform/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, config.DefaultFileName), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.Kind != config.EngineExec {
		t.Fatalf("expected exec engine by default, got %q", cfg.Engine.Kind)
	}
	if cfg.DBPath != filepath.Join(dir, ".pagesource", "pagesource.db") {
		t.Fatalf("unexpected db path: %s", cfg.DBPath)
	}
	if cfg.Hotkeys.Previous == "" || cfg.Hotkeys.Next == "" {
		t.Fatalf("expected default hotkeys, got %+v", cfg.Hotkeys)
	}
}

func TestLoadOverridesFields(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	raw := `log_level: debug
engine:
  kind: plugin
  plugin_binary: /opt/pagesource/gsengine
hotkeys:
  previous: PageUp
  next: PageDown
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Engine.Kind != config.EnginePlugin || cfg.Engine.PluginBinary != "/opt/pagesource/gsengine" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Engine.Ghostscript == "" {
		t.Fatalf("ghostscript default should survive partial engine block")
	}
	if cfg.Hotkeys.Previous != "PageUp" || cfg.Hotkeys.Next != "PageDown" {
		t.Fatalf("unexpected hotkeys: %+v", cfg.Hotkeys)
	}
}

func TestLoadEmptyFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path, dir); err != nil {
		t.Fatalf("empty config should load: %v", err)
	}
}

func TestLoadRejectsUnknownFieldAndBadEngine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	if err := os.WriteFile(path, []byte("vault: here\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path, dir); err == nil {
		t.Fatalf("unknown field should fail")
	}
	if err := os.WriteFile(path, []byte("engine:\n  kind: pdfium\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path, dir); err == nil {
		t.Fatalf("unknown engine kind should fail")
	}
	if err := os.WriteFile(path, []byte("engine:\n  kind: plugin\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path, dir); err == nil {
		t.Fatalf("plugin engine without binary should fail")
	}
}
