// Package config loads termblock settings from defaults, an optional YAML
// file and the environment. Command-line flags are layered on top by the
// binary.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"termblock/internal/editor"
	"termblock/internal/livesync"
	"termblock/internal/logging"
)

type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

const (
	DefaultListen      = "127.0.0.1:7357"
	DefaultKillTimeout = 2 * time.Second
	configFileName     = "config.yaml"
)

type Config struct {
	Editor         string        `yaml:"editor"`
	Shell          string        `yaml:"shell"`
	FallbackDirs   []string      `yaml:"fallback_dirs"`
	Listen         string        `yaml:"listen"`
	AuthToken      string        `yaml:"auth_token"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	LogLevel       string        `yaml:"log_level"`
	Debounce       time.Duration `yaml:"debounce"`
	KillTimeout    time.Duration `yaml:"kill_timeout"`
	Cols           uint16        `yaml:"cols"`
	Rows           uint16        `yaml:"rows"`

	// Sources records where each yaml key's value came from.
	Sources map[string]Source `yaml:"-"`
}

func Defaults() Config {
	return Config{
		Editor:      editor.DefaultEditorCommand,
		Shell:       editor.DefaultShell(),
		Listen:      DefaultListen,
		LogLevel:    string(logging.LevelInfo),
		Debounce:    livesync.DefaultDebounce,
		KillTimeout: DefaultKillTimeout,
		Cols:        editor.DefaultCols,
		Rows:        editor.DefaultRows,
		Sources:     map[string]Source{},
	}
}

// DefaultPath is the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "termblock", configFileName)
}

// Load builds a Config from defaults, the file at path and getenv. A missing
// file is only an error when required is set.
func Load(path string, required bool, getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		if err := cfg.LoadFile(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || required {
				return Config{}, err
			}
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in the YAML file onto cfg.
func (c *Config) LoadFile(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(payload, &root); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil
	}
	document := root.Content[0]
	if document.Kind != yaml.MappingNode {
		return fmt.Errorf("parse config %s: top level must be a mapping", path)
	}

	overlay := *c
	if err := document.Decode(&overlay); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	sources := c.Sources
	*c = overlay
	c.Sources = sources
	for index := 0; index+1 < len(document.Content); index += 2 {
		c.markSource(document.Content[index].Value, SourceFile)
	}
	return nil
}

// ApplyEnv overlays environment variables. TERMBLOCK_EDITOR wins over EDITOR.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) (string, bool) {
		value := strings.TrimSpace(getenv(key))
		return value, value != ""
	}

	if value, ok := lookup("EDITOR"); ok {
		c.Editor = value
		c.markSource("editor", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_EDITOR"); ok {
		c.Editor = value
		c.markSource("editor", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_SHELL"); ok {
		c.Shell = value
		c.markSource("shell", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_FALLBACK_DIRS"); ok {
		c.FallbackDirs = filepath.SplitList(value)
		c.markSource("fallback_dirs", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_LISTEN"); ok {
		c.Listen = value
		c.markSource("listen", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_TOKEN"); ok {
		c.AuthToken = value
		c.markSource("auth_token", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(value)
		c.markSource("allowed_origins", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_LOG_LEVEL"); ok {
		c.LogLevel = value
		c.markSource("log_level", SourceEnv)
	}
	if value, ok := lookup("TERMBLOCK_DEBOUNCE"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("TERMBLOCK_DEBOUNCE: %w", err)
		}
		c.Debounce = parsed
		c.markSource("debounce", SourceEnv)
	}
	return nil
}

// MarkFlag records that key was set on the command line.
func (c *Config) MarkFlag(key string) {
	c.markSource(key, SourceFlag)
}

// Source reports where key's value came from.
func (c Config) Source(key string) Source {
	if source, ok := c.Sources[key]; ok {
		return source
	}
	return SourceDefault
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Editor) == "" {
		errs = append(errs, errors.New("editor must not be empty"))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.KillTimeout <= 0 {
		errs = append(errs, errors.New("kill_timeout must be positive"))
	}
	if c.Cols == 0 || c.Rows == 0 {
		errs = append(errs, errors.New("cols and rows must be positive"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() logging.Level {
	if level, ok := logging.ParseLevel(c.LogLevel); ok {
		return level
	}
	return logging.LevelInfo
}

func (c *Config) markSource(key string, source Source) {
	if c.Sources == nil {
		c.Sources = map[string]Source{}
	}
	c.Sources[key] = source
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
