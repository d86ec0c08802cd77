// Package decode implements the per-video producer: a GStreamer file
// playback pipeline that emits frames into a handoff channel at the
// stream's native rate, looping forever on end-of-stream.
package decode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/visiona/colmix/internal/handoff"
	coltypes "github.com/visiona/colmix/internal/types"
)

// SourceConfig contains configuration for a decode source
type SourceConfig struct {
	// Path is the video file to play (required).
	Path string
	// Label identifies the source in frames and logs (e.g. "odd", "even").
	Label string
	// FallbackFPS paces emission when the stream's caps carry no framerate.
	FallbackFPS float64
}

// SourceStats contains current source statistics
type SourceStats struct {
	// Frames is the total number of frames emitted toward the handoff
	// channel (the channel's own stats count overflow drops).
	Frames uint64
	// Restarts counts loop-backs to the first frame (EOS and decode errors).
	Restarts uint32
	// FPSNative is the frame rate read from the stream caps (0 until known).
	FPSNative float64
	// LastFrameAt is when the source last emitted a frame.
	LastFrameAt time.Time
}

// Source continuously decodes one video file and pushes frames into its
// output channel at the stream's native frame rate.
//
// Lifecycle: NewSource() → Start() → Stop(). Stop blocks until both
// background goroutines (pacing loop and bus monitor) have exited, so the
// caller can rely on full quiescence before reusing resources.
//
// End-of-stream and decode failures are handled identically: the pipeline
// restarts from the first frame and the session keeps running. Neither is
// ever fatal.
type Source struct {
	cfg SourceConfig
	out *handoff.Channel

	elements *PipelineElements
	raw      chan *coltypes.Frame

	// Statistics (atomic for thread-safety)
	frameCount uint64
	restarts   uint32
	intervalNs int64 // native frame interval, published by the caps resolver

	mu          sync.Mutex
	lastFrameAt time.Time
	running     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSource creates a decode source with fail-fast validation.
//
// Validates at construction time:
//   - Path must point to an existing file
//   - FallbackFPS must be positive
//   - out must be non-nil
func NewSource(cfg SourceConfig, out *handoff.Channel) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("decode: source path is required")
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("decode: cannot open source: %w", err)
	}
	if cfg.FallbackFPS <= 0 {
		return nil, fmt.Errorf("decode: invalid fallback fps %.2f (must be > 0)", cfg.FallbackFPS)
	}
	if out == nil {
		return nil, fmt.Errorf("decode: output channel is required")
	}
	if cfg.Label == "" {
		cfg.Label = cfg.Path
	}

	return &Source{cfg: cfg, out: out}, nil
}

// Start builds the pipeline and launches the pacing loop and bus monitor.
//
// A pipeline build failure (unreadable file, missing plugin) is returned to
// the caller and the source stays stopped — the session must not start.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("decode: source already started")
	}

	elements, err := CreatePipeline(PipelineConfig{Location: s.cfg.Path})
	if err != nil {
		return fmt.Errorf("decode: failed to create pipeline: %w", err)
	}
	s.elements = elements

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.raw = make(chan *coltypes.Frame)

	cc := &callbackContext{
		frames:      s.raw,
		done:        s.ctx.Done(),
		label:       s.cfg.Label,
		fallbackFPS: s.cfg.FallbackFPS,
		intervalNs:  &s.intervalNs,
	}
	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return onNewSample(sink, cc)
		},
	})

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		DestroyPipeline(elements)
		s.elements = nil
		return fmt.Errorf("decode: failed to start pipeline: %w", err)
	}

	s.running = true

	s.wg.Add(2)
	go s.paceLoop()
	go s.monitorLoop()

	slog.Info("decode: source started",
		"source", s.cfg.Label,
		"path", s.cfg.Path,
		"fallback_fps", s.cfg.FallbackFPS,
	)
	return nil
}

// Stop shuts the source down and joins its goroutines.
//
// Safe to call mid-sleep or mid-read: the context cancellation wakes the
// pacing loop and unblocks the appsink callback, and the NULL state change
// stops the streaming thread. Idempotent.
func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil // Already stopped (idempotent)
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	DestroyPipeline(s.elements)
	s.elements = nil

	slog.Info("decode: source stopped",
		"source", s.cfg.Label,
		"frames", atomic.LoadUint64(&s.frameCount),
		"restarts", atomic.LoadUint32(&s.restarts),
	)
	return nil
}

// paceLoop emits frames at the stream's native rate.
//
// Each emission deadline is computed from the previous deadline plus the
// native interval (drift-free); only the remaining time is slept. The push
// into the handoff channel is non-blocking — overflow there drops the
// newest frame by design.
func (s *Source) paceLoop() {
	defer s.wg.Done()

	var deadline time.Time
	for {
		select {
		case <-s.ctx.Done():
			return

		case frame := <-s.raw:
			interval := s.interval()
			deadline = nextDeadline(deadline, time.Now(), interval)

			if wait := time.Until(deadline); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-s.ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}

			s.out.Push(frame)
			atomic.AddUint64(&s.frameCount, 1)

			s.mu.Lock()
			s.lastFrameAt = time.Now()
			s.mu.Unlock()

			slog.Debug("decode: frame emitted",
				"source", s.cfg.Label,
				"seq", frame.Seq,
				"trace_id", frame.TraceID,
			)
		}
	}
}

// monitorLoop watches the pipeline bus and restarts playback from the
// first frame on end-of-stream or decode errors.
func (s *Source) monitorLoop() {
	defer s.wg.Done()

	m := &monitor{
		source:  s.cfg.Label,
		bus:     &gstBusPoller{bus: s.elements.Pipeline.GetPipelineBus()},
		restart: s.restart,
	}
	m.run(s.ctx)
}

// restart rewinds playback to the first frame by cycling the pipeline
// through NULL back to PLAYING, matching the reopen/reset discipline used
// for stream reconnects.
func (s *Source) restart() {
	if s.ctx.Err() != nil {
		return
	}

	if err := s.elements.Pipeline.SetState(gst.StateNull); err != nil {
		slog.Error("decode: restart failed to reach NULL", "source", s.cfg.Label, "error", err)
		return
	}
	if err := s.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		slog.Error("decode: restart failed to reach PLAYING", "source", s.cfg.Label, "error", err)
		return
	}

	atomic.AddUint32(&s.restarts, 1)
}

// interval returns the current native frame interval, falling back to the
// configured fps until the caps have been negotiated.
func (s *Source) interval() time.Duration {
	if ns := atomic.LoadInt64(&s.intervalNs); ns > 0 {
		return time.Duration(ns)
	}
	return intervalFromFramerate("", s.cfg.FallbackFPS)
}

// Stats returns a snapshot of source statistics (non-blocking).
func (s *Source) Stats() SourceStats {
	s.mu.Lock()
	lastFrameAt := s.lastFrameAt
	s.mu.Unlock()

	fps := 0.0
	if ns := atomic.LoadInt64(&s.intervalNs); ns > 0 {
		fps = float64(time.Second) / float64(ns)
	}

	return SourceStats{
		Frames:      atomic.LoadUint64(&s.frameCount),
		Restarts:    atomic.LoadUint32(&s.restarts),
		FPSNative:   fps,
		LastFrameAt: lastFrameAt,
	}
}
