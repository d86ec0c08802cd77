package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5 // default
	}

	// Validate mixer config
	if cfg.Mixer.QueueCapacity <= 0 {
		return fmt.Errorf("mixer.queue_capacity must be > 0")
	}
	if cfg.Mixer.PopTimeoutS <= 0 {
		return fmt.Errorf("mixer.pop_timeout_s must be > 0")
	}
	if cfg.Mixer.FallbackFPS <= 0 || cfg.Mixer.FallbackFPS > 240 {
		return fmt.Errorf("mixer.fallback_fps must be in (0, 240], got %.2f", cfg.Mixer.FallbackFPS)
	}

	// Validate display config
	if cfg.Display.Sink == "" {
		cfg.Display.Sink = "auto" // default
	}

	if cfg.StatsIntervalS < 0 {
		return fmt.Errorf("stats_interval_s must be >= 0")
	}

	// Source paths are allowed to be empty here: they can be set later
	// through the control surface. Session start enforces both.

	return nil
}
