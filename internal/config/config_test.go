package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colmix.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}
	return path
}

// TestLoadFullConfig validates that every section round-trips from YAML.
func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
instance_id: mixer-01
shutdown_timeout_s: 10
stats_interval_s: 5
sources:
  odd: /video/a.mp4
  even: /video/b.mp4
mixer:
  queue_capacity: 20
  pop_timeout_s: 2
  fallback_fps: 25
display:
  sink: xvimagesink
  fullscreen: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.InstanceID != "mixer-01" {
		t.Errorf("InstanceID = %q, want mixer-01", cfg.InstanceID)
	}
	if cfg.ShutdownTimeoutS != 10 {
		t.Errorf("ShutdownTimeoutS = %d, want 10", cfg.ShutdownTimeoutS)
	}
	if cfg.StatsIntervalS != 5 {
		t.Errorf("StatsIntervalS = %d, want 5", cfg.StatsIntervalS)
	}
	if cfg.Sources.Odd != "/video/a.mp4" || cfg.Sources.Even != "/video/b.mp4" {
		t.Errorf("Sources = %+v, want /video/a.mp4 and /video/b.mp4", cfg.Sources)
	}
	if cfg.Mixer.QueueCapacity != 20 || cfg.Mixer.PopTimeoutS != 2 || cfg.Mixer.FallbackFPS != 25 {
		t.Errorf("Mixer = %+v, want capacity=20 timeout=2 fps=25", cfg.Mixer)
	}
	if cfg.Display.Sink != "xvimagesink" || !cfg.Display.Fullscreen {
		t.Errorf("Display = %+v, want xvimagesink fullscreen", cfg.Display)
	}
}

// TestLoadAppliesDefaults validates that a minimal config inherits every
// default: queue capacity 10, pop timeout 1s, fallback 30fps, auto sink.
func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "instance_id: colmix\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Mixer.QueueCapacity != 10 {
		t.Errorf("QueueCapacity = %d, want 10", cfg.Mixer.QueueCapacity)
	}
	if cfg.Mixer.PopTimeoutS != 1 {
		t.Errorf("PopTimeoutS = %d, want 1", cfg.Mixer.PopTimeoutS)
	}
	if cfg.Mixer.FallbackFPS != 30 {
		t.Errorf("FallbackFPS = %v, want 30", cfg.Mixer.FallbackFPS)
	}
	if cfg.Display.Sink != "auto" {
		t.Errorf("Display.Sink = %q, want auto", cfg.Display.Sink)
	}
	if cfg.ShutdownTimeoutS != 5 {
		t.Errorf("ShutdownTimeoutS = %d, want 5", cfg.ShutdownTimeoutS)
	}
	if cfg.Sources.Odd != "" || cfg.Sources.Even != "" {
		t.Errorf("Sources = %+v, want empty (set later via control surface)", cfg.Sources)
	}
}

// TestLoadMissingFile validates the error path for a nonexistent config.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file succeeded, want error")
	}
}

// TestLoadInvalidYAML validates the parse error path.
func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "instance_id: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() on broken YAML succeeded, want error")
	}
}

// TestValidate exercises every validation rule independently.
func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty instance id", func(c *Config) { c.InstanceID = "" }, true},
		{"uppercase instance id", func(c *Config) { c.InstanceID = "Mixer" }, true},
		{"instance id with dash", func(c *Config) { c.InstanceID = "mixer-7" }, false},
		{"zero queue capacity", func(c *Config) { c.Mixer.QueueCapacity = 0 }, true},
		{"negative queue capacity", func(c *Config) { c.Mixer.QueueCapacity = -1 }, true},
		{"zero pop timeout", func(c *Config) { c.Mixer.PopTimeoutS = 0 }, true},
		{"zero fallback fps", func(c *Config) { c.Mixer.FallbackFPS = 0 }, true},
		{"excessive fallback fps", func(c *Config) { c.Mixer.FallbackFPS = 500 }, true},
		{"negative stats interval", func(c *Config) { c.StatsIntervalS = -1 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr && err == nil {
				t.Error("Validate() succeeded, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate() failed: %v", err)
			}
		})
	}
}

// TestValidateFillsDefaults validates the repair rules: zero shutdown
// timeout and empty sink are defaulted rather than rejected.
func TestValidateFillsDefaults(t *testing.T) {
	cfg := Default()
	cfg.ShutdownTimeoutS = 0
	cfg.Display.Sink = ""

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.ShutdownTimeoutS != 5 {
		t.Errorf("ShutdownTimeoutS = %d, want 5", cfg.ShutdownTimeoutS)
	}
	if cfg.Display.Sink != "auto" {
		t.Errorf("Display.Sink = %q, want auto", cfg.Display.Sink)
	}
}
