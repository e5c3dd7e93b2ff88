// Package config loads tracklog settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/tracklog/internal/infra"
	"github.com/eliteGoblin/focusd/tracklog/internal/usecase"
)

// Config holds tracklog configuration.
type Config struct {
	// BasePath is the registry/trace pair used when no argument is given.
	BasePath string `yaml:"base_path"`

	// LogFile receives diagnostics; empty means stderr.
	LogFile string `yaml:"log_file"`

	IncludeHidden  bool   `yaml:"include_hidden"`
	FlushOpenSlots bool   `yaml:"flush_open_slots"`
	BrowserProcess string `yaml:"browser_process"`
	EditorProcess  string `yaml:"editor_process"`

	// AgentProcess is the tracker executable looked up by status.
	AgentProcess string `yaml:"agent_process"`

	Archive ArchiveConfig `yaml:"archive"`
	Follow  FollowConfig  `yaml:"follow"`
}

// ArchiveConfig locates the encrypted interval archive.
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// FollowConfig tunes the follow command.
type FollowConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BasePath:       "~/AppData/Roaming/TimeTracker/TimeTracker",
		BrowserProcess: usecase.DefaultBrowserProcess,
		EditorProcess:  usecase.DefaultEditorProcess,
		AgentProcess:   infra.DefaultAgentProcess,
		Archive:        ArchiveConfig{Dir: "~/.tracklog"},
		Follow:         FollowConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.BrowserProcess == "" {
		return errors.New("browser_process must not be empty")
	}
	if c.EditorProcess == "" {
		return errors.New("editor_process must not be empty")
	}
	if c.Follow.Debounce < 0 {
		return errors.New("follow.debounce must not be negative")
	}
	return nil
}

// ReconcilerOptions maps the configuration onto reconciler options.
func (c Config) ReconcilerOptions() usecase.ReconcilerOptions {
	return usecase.ReconcilerOptions{
		IncludeHidden:  c.IncludeHidden,
		FlushOpenSlots: c.FlushOpenSlots,
		BrowserProcess: c.BrowserProcess,
		EditorProcess:  c.EditorProcess,
	}
}
