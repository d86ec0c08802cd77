package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete colmix configuration
type Config struct {
	InstanceID       string        `yaml:"instance_id"`
	ShutdownTimeoutS int           `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Sources          SourcesConfig `yaml:"sources"`
	Mixer            MixerConfig   `yaml:"mixer"`
	Display          DisplayConfig `yaml:"display"`
	StatsIntervalS   int           `yaml:"stats_interval_s"` // 0 disables the stats ticker
}

// SourcesConfig contains the two input video paths. Either may be empty at
// load time and set later through the control surface; a session cannot
// start until both are set.
type SourcesConfig struct {
	Odd  string `yaml:"odd"`  // source 1, keeps odd columns
	Even string `yaml:"even"` // source 2, supplies even columns
}

// MixerConfig contains compositing pipeline settings
type MixerConfig struct {
	QueueCapacity int     `yaml:"queue_capacity"` // handoff channel capacity
	PopTimeoutS   int     `yaml:"pop_timeout_s"`  // compositor pop timeout in seconds
	FallbackFPS   float64 `yaml:"fallback_fps"`   // pacing fallback when caps carry no framerate
}

// DisplayConfig contains presentation sink settings
type DisplayConfig struct {
	Sink       string `yaml:"sink"`       // gstreamer video sink element, "auto", or "none"
	Fullscreen bool   `yaml:"fullscreen"` // start fullscreen (best-effort, sink dependent)
}

// Default returns a configuration with the standard defaults applied.
func Default() *Config {
	return &Config{
		InstanceID:       "colmix",
		ShutdownTimeoutS: 5,
		Mixer: MixerConfig{
			QueueCapacity: 10,
			PopTimeoutS:   1,
			FallbackFPS:   30,
		},
		Display: DisplayConfig{
			Sink: "auto",
		},
	}
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
