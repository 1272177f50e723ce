// Package config provides unified configuration loading for schedsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchedsimConfig contains all schedsim configuration settings.
type SchedsimConfig struct {
	// Engine holds the AADRR rank weights.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Baselines configures the comparison schedulers.
	Baselines BaselinesConfig `json:"baselines" yaml:"baselines"`

	// Output controls report rendering.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Store configures run history persistence.
	Store StoreConfig `json:"store" yaml:"store"`
}

// EngineConfig holds the rank weights: rank = BurstWeight*remaining + PriorityWeight*priority.
type EngineConfig struct {
	BurstWeight    int `json:"burst_weight" yaml:"burst_weight"`
	PriorityWeight int `json:"priority_weight" yaml:"priority_weight"`
}

// BaselinesConfig configures FCFS and round robin.
type BaselinesConfig struct {
	// RRQuantum is the fixed round robin time slice.
	RRQuantum int `json:"rr_quantum" yaml:"rr_quantum"`
}

// OutputConfig controls how reports are printed.
type OutputConfig struct {
	// Format is "text" (tables) or "json".
	Format string `json:"format" yaml:"format"`
	// Language selects report labels: "en" or "es".
	Language string `json:"language" yaml:"language"`
}

// LoggingConfig configures schedsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to .schedsim/decisions.jsonl.
	Level string `json:"level" yaml:"level"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Path overrides <root>/.schedsim/schedsim.db. Supports ${VAR} expansion.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a SchedsimConfig with sensible defaults.
func Default() *SchedsimConfig {
	return &SchedsimConfig{
		Engine: EngineConfig{
			BurstWeight:    10,
			PriorityWeight: 5,
		},
		Baselines: BaselinesConfig{
			RRQuantum: 4,
		},
		Output: OutputConfig{
			Format:   "text",
			Language: "en",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Enabled: true,
		},
	}
}

// DefaultPath returns ~/.schedsim/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".schedsim", "config.yaml"), nil
}

// Load loads configuration from path, or from DefaultPath when path is empty,
// then applies environment overrides and validates the result.
// Order: defaults -> config file -> environment variables.
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*SchedsimConfig, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			fileConfig, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
		case explicit:
			return nil, fmt.Errorf("loading config file: %w", statErr)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys absent
// from the file keep their defaults.
func LoadFromFile(path string) (*SchedsimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *SchedsimConfig) Validate() error {
	if c.Baselines.RRQuantum <= 0 {
		return fmt.Errorf("rr_quantum must be positive, got %d", c.Baselines.RRQuantum)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %s (valid: text, json)", c.Output.Format)
	}

	validLanguages := map[string]bool{"en": true, "es": true}
	if !validLanguages[c.Output.Language] {
		return fmt.Errorf("invalid language: %s (valid: en, es)", c.Output.Language)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// StorePath returns the configured database path, or the project default
// under root when none is set.
func (c *SchedsimConfig) StorePath(root string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(root, ".schedsim", "schedsim.db")
}

// applyEnvOverrides applies SCHEDSIM_* environment variables to the config.
// Malformed numbers are reported rather than ignored.
func applyEnvOverrides(config *SchedsimConfig) error {
	ints := []struct {
		env string
		dst *int
	}{
		{"SCHEDSIM_BURST_WEIGHT", &config.Engine.BurstWeight},
		{"SCHEDSIM_PRIORITY_WEIGHT", &config.Engine.PriorityWeight},
		{"SCHEDSIM_RR_QUANTUM", &config.Baselines.RRQuantum},
	}
	for _, o := range ints {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", o.env, v, err)
		}
		*o.dst = n
	}

	if v := os.Getenv("SCHEDSIM_LANGUAGE"); v != "" {
		config.Output.Language = strings.ToLower(v)
	}

	if v := os.Getenv("SCHEDSIM_OUTPUT_FORMAT"); v != "" {
		config.Output.Format = strings.ToLower(v)
	}

	if v := os.Getenv("SCHEDSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("SCHEDSIM_STORE_PATH"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("SCHEDSIM_STORE_ENABLED"); v != "" {
		config.Store.Enabled = v == "true" || v == "1"
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
