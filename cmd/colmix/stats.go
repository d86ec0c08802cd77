package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/visiona/colmix/internal/session"
)

// statsMonitor periodically logs session throughput and drop counters,
// computing the composite rate from the pair-count delta per tick.
func statsMonitor(ctx context.Context, ctrl *session.Controller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastPairs uint64
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := ctrl.Stats()
			if !stats.Running {
				lastPairs = 0
				lastTime = time.Now()
				continue
			}

			now := time.Now()
			elapsed := now.Sub(lastTime).Seconds()
			fps := float64(stats.Mixer.Pairs-lastPairs) / elapsed
			lastPairs = stats.Mixer.Pairs
			lastTime = now

			slog.Info("stats",
				"composite_fps", fps,
				"pairs", stats.Mixer.Pairs,
				"mismatches", stats.Mixer.Mismatches,
				"timeouts_1", stats.Mixer.TimeoutsA,
				"timeouts_2", stats.Mixer.TimeoutsB,
				"drops_1", stats.ChannelA.Dropped,
				"drops_2", stats.ChannelB.Dropped,
				"src_fps_1", stats.SourceA.FPSNative,
				"src_fps_2", stats.SourceB.FPSNative,
			)
		}
	}
}
