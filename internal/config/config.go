// Package config loads and validates the muxdrive configuration.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/muxdrive/muxdrive/internal/shell"
)

// CommandConfig tunes command tracking.
type CommandConfig struct {
	// RetentionMinutes is how long finished and pending entries are kept
	// before a sweep evicts them. Default: 10.
	RetentionMinutes int `yaml:"retention_minutes,omitempty"`
	// CaptureLines bounds the trailing pane window read per status
	// check. Default: 200.
	CaptureLines int `yaml:"capture_lines,omitempty"`
	// ResolveGraceSeconds is how long a pending command may show no
	// marker at all before status checks report the completion as
	// unresolvable. Default: 30.
	ResolveGraceSeconds int `yaml:"resolve_grace_seconds,omitempty"`
}

// LoggingConfig configures action logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled,omitempty"`
	Level         string `yaml:"level,omitempty"`
	File          string `yaml:"file,omitempty"`
	MaxSizeMB     int    `yaml:"max_size_mb,omitempty"`
	MaxFiles      int    `yaml:"max_files,omitempty"`
	PreviewLength int    `yaml:"preview_length,omitempty"`
}

// Config is the effective muxdrive configuration.
type Config struct {
	// Shell is the shell running in target panes; it decides the
	// exit-status idiom used by the command wrapper. One of bash, zsh,
	// fish. Default: bash.
	Shell   string        `yaml:"shell,omitempty"`
	Command CommandConfig `yaml:"command,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

const (
	DefaultRetentionMinutes    = 10
	DefaultCaptureLines        = 200
	DefaultResolveGraceSeconds = 30
	DefaultLogMaxSizeMB        = 10
	DefaultLogMaxFiles         = 3
	DefaultLogPreviewLength    = 50
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Shell: string(shell.Bash),
		Command: CommandConfig{
			RetentionMinutes:    DefaultRetentionMinutes,
			CaptureLines:        DefaultCaptureLines,
			ResolveGraceSeconds: DefaultResolveGraceSeconds,
		},
		Logging: LoggingConfig{
			Level:         "info",
			MaxSizeMB:     DefaultLogMaxSizeMB,
			MaxFiles:      DefaultLogMaxFiles,
			PreviewLength: DefaultLogPreviewLength,
		},
	}
}

// DefaultConfigPath returns ~/.config/muxdrive/config.yaml.
func DefaultConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "muxdrive", "config.yaml"), nil
}

// DefaultLogPath returns the default action log location.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "muxdrive-actions.log"
	}
	return filepath.Join(home, ".local", "share", "muxdrive", "actions.log")
}

// Load reads the config from the standard location. A missing file
// yields the defaults; a present but invalid file is an error.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates a config file. Unknown keys are
// rejected so typos fail loudly at startup.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", path, err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Shell == "" {
		cfg.Shell = string(shell.Bash)
	}
	if cfg.Command.RetentionMinutes <= 0 {
		cfg.Command.RetentionMinutes = DefaultRetentionMinutes
	}
	if cfg.Command.CaptureLines <= 0 {
		cfg.Command.CaptureLines = DefaultCaptureLines
	}
	if cfg.Command.ResolveGraceSeconds <= 0 {
		cfg.Command.ResolveGraceSeconds = DefaultResolveGraceSeconds
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Logging.MaxFiles <= 0 {
		cfg.Logging.MaxFiles = DefaultLogMaxFiles
	}
	if cfg.Logging.PreviewLength <= 0 {
		cfg.Logging.PreviewLength = DefaultLogPreviewLength
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = DefaultLogPath()
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if _, err := shell.Parse(c.Shell); err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}

// ShellType returns the validated shell. Call Validate first.
func (c *Config) ShellType() shell.Shell {
	sh, err := shell.Parse(c.Shell)
	if err != nil {
		return shell.Bash
	}
	return sh
}
