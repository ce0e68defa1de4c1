package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EngineExec   = "exec"
	EnginePlugin = "plugin"

	DefaultFileName = "pagesource.yaml"
)

type Config struct {
	DataDir  string  `yaml:"data_dir"`
	DBPath   string  `yaml:"db_path"`
	LogLevel string  `yaml:"log_level"`
	Engine   Engine  `yaml:"engine"`
	Hotkeys  Hotkeys `yaml:"hotkeys"`
}

type Engine struct {
	Kind         string `yaml:"kind"`
	Ghostscript  string `yaml:"ghostscript"`
	PluginBinary string `yaml:"plugin_binary"`
}

// Hotkeys names the previous/next page key pair registered by the window
// host. Values are ebiten key names such as "PageUp" or "Comma".
type Hotkeys struct {
	Previous string `yaml:"previous"`
	Next     string `yaml:"next"`
}

func Default(dataDir string) Config {
	if dataDir == "" {
		dataDir = "."
	}
	return Config{
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, ".pagesource", "pagesource.db"),
		Engine: Engine{
			Kind:        EngineExec,
			Ghostscript: defaultGhostscript(),
		},
		Hotkeys: Hotkeys{Previous: "Comma", Next: "Period"},
	}
}

// Load reads a YAML config file. A missing file yields Default(dataDir);
// fields absent from the file keep their defaults.
func Load(path, dataDir string) (Config, error) {
	cfg := Default(dataDir)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, ".pagesource", "pagesource.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Engine.Kind {
	case EngineExec:
		if strings.TrimSpace(c.Engine.Ghostscript) == "" {
			return fmt.Errorf("engine.ghostscript is required for the exec engine")
		}
	case EnginePlugin:
		if strings.TrimSpace(c.Engine.PluginBinary) == "" {
			return fmt.Errorf("engine.plugin_binary is required for the plugin engine")
		}
	default:
		return fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
	}
	return nil
}

func defaultGhostscript() string {
	if runtime.GOOS == "windows" {
		return "gswin64c"
	}
	return "gs"
}
