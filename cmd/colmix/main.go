package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/visiona/colmix/internal/config"
	"github.com/visiona/colmix/internal/display"
	"github.com/visiona/colmix/internal/session"
)

const defaultConfigPath = "config/colmix.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup structured logger
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	slog.Info("starting colmix",
		"instance_id", cfg.InstanceID,
		"config", *configPath,
		"debug", *debug,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Presentation sink is a collaborator of the session, owned here.
	sink := newSink(cfg)
	if err := sink.Start(ctx); err != nil {
		// Headless fallback: the mixing core keeps working, output is
		// simply discarded. The only visible symptom is no window.
		slog.Warn("display sink unavailable, discarding output", "error", err)
		sink = &display.NullSink{}
	}

	ctrl := session.New(cfg.Mixer, sink)
	if cfg.Sources.Odd != "" {
		if err := ctrl.SetSource(1, cfg.Sources.Odd); err != nil {
			slog.Error("invalid source 1", "error", err)
		}
	}
	if cfg.Sources.Even != "" {
		if err := ctrl.SetSource(2, cfg.Sources.Even); err != nil {
			slog.Error("invalid source 2", "error", err)
		}
	}

	// Auto-start when both sources are preconfigured.
	if ctrl.Source(1) != "" && ctrl.Source(2) != "" {
		if err := ctrl.Start(ctx); err != nil {
			slog.Error("failed to start mixing session", "error", err)
		}
	}

	if cfg.StatsIntervalS > 0 {
		go statsMonitor(ctx, ctrl, time.Duration(cfg.StatsIntervalS)*time.Second)
	}

	// Control surface: line commands on stdin (see control.go).
	go controlLoop(ctx, cancel, ctrl, sink)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	case <-ctx.Done():
	}

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutS) * time.Second
	slog.Info("shutting down", "timeout", shutdownTimeout)

	done := make(chan struct{})
	go func() {
		ctrl.Stop()
		sink.Stop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("colmix stopped")
	case <-time.After(shutdownTimeout):
		slog.Error("shutdown timed out")
		os.Exit(1)
	}
}

// loadConfig loads the YAML config, falling back to defaults when the
// default config path simply does not exist (sources can be set
// interactively).
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file, using defaults", "path", path)
		return config.Default(), nil
	}
	return cfg, err
}

// newSink builds the configured presentation sink.
func newSink(cfg *config.Config) display.Sink {
	if cfg.Display.Sink == "none" {
		return &display.NullSink{}
	}
	return display.NewGstSink(display.GstConfig{
		SinkElement: cfg.Display.Sink,
		Fullscreen:  cfg.Display.Fullscreen,
	})
}
