package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points HOME at an empty directory and clears SCHEDSIM_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, env := range []string{
		"SCHEDSIM_BURST_WEIGHT", "SCHEDSIM_PRIORITY_WEIGHT", "SCHEDSIM_RR_QUANTUM",
		"SCHEDSIM_LANGUAGE", "SCHEDSIM_OUTPUT_FORMAT", "SCHEDSIM_LOG_LEVEL",
		"SCHEDSIM_STORE_PATH", "SCHEDSIM_STORE_ENABLED",
	} {
		t.Setenv(env, "")
	}
	return home
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.Engine.BurstWeight != 10 || config.Engine.PriorityWeight != 5 {
		t.Errorf("expected weights 10/5, got %d/%d", config.Engine.BurstWeight, config.Engine.PriorityWeight)
	}
	if config.Baselines.RRQuantum != 4 {
		t.Errorf("expected RRQuantum 4, got %d", config.Baselines.RRQuantum)
	}
	if config.Output.Format != "text" || config.Output.Language != "en" {
		t.Errorf("expected text/en output, got %s/%s", config.Output.Format, config.Output.Language)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if !config.Store.Enabled {
		t.Error("expected store to be enabled by default")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("SCHEDSIM_TEST_DIR", "/data")

	configContent := `
engine:
  burst_weight: 3
baselines:
  rr_quantum: 2
output:
  language: es
store:
  enabled: false
  path: ${SCHEDSIM_TEST_DIR}/runs.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Engine.BurstWeight != 3 {
		t.Errorf("expected BurstWeight 3, got %d", config.Engine.BurstWeight)
	}
	if config.Engine.PriorityWeight != 5 {
		t.Errorf("expected PriorityWeight to keep default 5, got %d", config.Engine.PriorityWeight)
	}
	if config.Baselines.RRQuantum != 2 {
		t.Errorf("expected RRQuantum 2, got %d", config.Baselines.RRQuantum)
	}
	if config.Output.Language != "es" || config.Output.Format != "text" {
		t.Errorf("expected es/text output, got %s/%s", config.Output.Language, config.Output.Format)
	}
	if config.Store.Enabled {
		t.Error("expected store to be disabled")
	}
	if config.Store.Path != "/data/runs.db" {
		t.Errorf("expected expanded store path, got %q", config.Store.Path)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("engine: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := isolate(t)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() without a config file error = %v", err)
	}
	if config.Engine.BurstWeight != 10 {
		t.Errorf("expected defaults, got BurstWeight %d", config.Engine.BurstWeight)
	}

	dir := filepath.Join(home, ".schedsim")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("baselines:\n  rr_quantum: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Baselines.RRQuantum != 7 {
		t.Errorf("expected RRQuantum 7 from ~/.schedsim/config.yaml, got %d", config.Baselines.RRQuantum)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config path")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SCHEDSIM_BURST_WEIGHT", "1")
	t.Setenv("SCHEDSIM_PRIORITY_WEIGHT", "2")
	t.Setenv("SCHEDSIM_RR_QUANTUM", " 3 ")
	t.Setenv("SCHEDSIM_LANGUAGE", "ES")
	t.Setenv("SCHEDSIM_OUTPUT_FORMAT", "json")
	t.Setenv("SCHEDSIM_LOG_LEVEL", "debug")
	t.Setenv("SCHEDSIM_STORE_PATH", "/tmp/x.db")
	t.Setenv("SCHEDSIM_STORE_ENABLED", "0")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Engine.BurstWeight != 1 || config.Engine.PriorityWeight != 2 || config.Baselines.RRQuantum != 3 {
		t.Errorf("numeric overrides not applied: %+v %+v", config.Engine, config.Baselines)
	}
	if config.Output.Language != "es" || config.Output.Format != "json" {
		t.Errorf("output overrides not applied: %+v", config.Output)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", config.Logging.Level)
	}
	if config.Store.Path != "/tmp/x.db" || config.Store.Enabled {
		t.Errorf("store overrides not applied: %+v", config.Store)
	}
}

func TestLoad_EnvMalformedNumber(t *testing.T) {
	isolate(t)
	t.Setenv("SCHEDSIM_RR_QUANTUM", "four")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "SCHEDSIM_RR_QUANTUM") {
		t.Errorf("Load() error = %v, want one naming SCHEDSIM_RR_QUANTUM", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SchedsimConfig)
		wantErr string
	}{
		{"valid default", func(c *SchedsimConfig) {}, ""},
		{"negative weights", func(c *SchedsimConfig) { c.Engine = EngineConfig{BurstWeight: -1, PriorityWeight: -2} }, ""},
		{"zero quantum", func(c *SchedsimConfig) { c.Baselines.RRQuantum = 0 }, "rr_quantum"},
		{"bad format", func(c *SchedsimConfig) { c.Output.Format = "xml" }, "output format"},
		{"bad language", func(c *SchedsimConfig) { c.Output.Language = "fr" }, "language"},
		{"bad log level", func(c *SchedsimConfig) { c.Logging.Level = "verbose" }, "log level"},
		{"empty log level", func(c *SchedsimConfig) { c.Logging.Level = "" }, ""},
		{"zero weights", func(c *SchedsimConfig) { c.Engine = EngineConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	config := Default()
	if got, want := config.StorePath("/proj"), filepath.Join("/proj", ".schedsim", "schedsim.db"); got != want {
		t.Errorf("StorePath() = %q, want %q", got, want)
	}
	config.Store.Path = "/elsewhere/runs.db"
	if got := config.StorePath("/proj"); got != "/elsewhere/runs.db" {
		t.Errorf("StorePath() = %q, want override", got)
	}
}
