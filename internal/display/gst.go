package display

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/visiona/colmix/internal/handoff"
	"github.com/visiona/colmix/internal/types"
)

// sinkQueueCapacity bounds the cross-thread delivery queue between the
// compositor and the GStreamer feed loop. Overflow drops the newest frame,
// same policy as the decode handoff.
const sinkQueueCapacity = 4

// GstConfig contains configuration for the GStreamer display sink
type GstConfig struct {
	// SinkElement is the video sink element name, or "auto" for
	// autovideosink.
	SinkElement string
	// Fullscreen requests fullscreen presentation at startup (best-effort,
	// only honored by sink elements exposing a fullscreen property).
	Fullscreen bool
}

// GstSink renders composite frames through a GStreamer pipeline:
//
//	appsrc → videoconvert → videoscale → <video sink>
//
// Display() never renders inline: frames are queued and a feed goroutine
// pushes them into appsrc, so delivery is safe from any goroutine. The
// video sink scales to the viewport with aspect ratio preserved
// (force-aspect-ratio is the default on the stock sinks).
type GstSink struct {
	cfg GstConfig

	queue *handoff.Channel

	pipeline  *gst.Pipeline
	appsrc    *app.Source
	videosink *gst.Element

	displayed uint64
	rejected  uint64

	mu      sync.Mutex
	capsSet bool
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGstSink creates a display sink. The pipeline is not built until Start.
func NewGstSink(cfg GstConfig) *GstSink {
	if cfg.SinkElement == "" {
		cfg.SinkElement = "auto"
	}
	return &GstSink{cfg: cfg}
}

// Start builds and starts the display pipeline.
func (s *GstSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("display: sink already started")
	}

	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("display: failed to create pipeline: %w", err)
	}

	appsrc, err := app.NewAppSrc()
	if err != nil {
		return fmt.Errorf("display: failed to create appsrc: %w", err)
	}
	appsrc.SetProperty("is-live", true)
	appsrc.SetProperty("do-timestamp", true)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("display: failed to create videoconvert: %w", err)
	}

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return fmt.Errorf("display: failed to create videoscale: %w", err)
	}

	sinkName := s.cfg.SinkElement
	if sinkName == "auto" {
		sinkName = "autovideosink"
	}
	videosink, err := gst.NewElement(sinkName)
	if err != nil {
		return fmt.Errorf("display: failed to create video sink %q: %w", sinkName, err)
	}

	pipeline.AddMany(appsrc.Element, converter, scaler, videosink)
	if err := gst.ElementLinkMany(appsrc.Element, converter, scaler, videosink); err != nil {
		return fmt.Errorf("display: failed to link pipeline elements: %w", err)
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("display: failed to start pipeline: %w", err)
	}

	queue, err := handoff.New(sinkQueueCapacity)
	if err != nil {
		return err
	}

	s.pipeline = pipeline
	s.appsrc = appsrc
	s.videosink = videosink
	s.queue = queue
	s.capsSet = false
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	if s.cfg.Fullscreen {
		s.applyFullscreen(true)
	}

	s.wg.Add(2)
	go s.feedLoop()
	go s.monitorLoop()

	slog.Info("display: sink started", "sink", sinkName, "fullscreen", s.cfg.Fullscreen)
	return nil
}

// Display queues a frame for presentation. Never blocks; if the delivery
// queue is full the newest frame is dropped. Safe to call from any
// goroutine, and a no-op before Start or after Stop.
func (s *GstSink) Display(frame *types.Frame) {
	s.mu.Lock()
	queue := s.queue
	running := s.running
	s.mu.Unlock()

	if !running || frame == nil {
		return
	}
	queue.Push(frame)
}

// SetFullscreen toggles fullscreen on the video sink element when it
// exposes a fullscreen property; otherwise the request is logged and
// ignored. The core never depends on the outcome.
func (s *GstSink) SetFullscreen(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.applyFullscreen(enabled)
}

func (s *GstSink) applyFullscreen(enabled bool) {
	if s.cfg.SinkElement == "auto" {
		// autovideosink resolves its child at runtime and proxies no
		// fullscreen property; an explicit sink element is required.
		slog.Info("display: fullscreen not supported by auto sink, ignoring",
			"requested", enabled)
		return
	}
	s.videosink.SetProperty("fullscreen", enabled)
	slog.Info("display: fullscreen toggled", "enabled", enabled, "sink", s.cfg.SinkElement)
}

// Stop tears the pipeline down and joins the feed loop. Idempotent.
func (s *GstSink) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil // Already stopped (idempotent)
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("display: failed to stop pipeline: %w", err)
	}

	slog.Info("display: sink stopped", "frames", atomic.LoadUint64(&s.displayed))
	return nil
}

// feedLoop moves frames from the delivery queue into appsrc. This is the
// only goroutine touching appsrc after Start.
func (s *GstSink) feedLoop() {
	defer s.wg.Done()

	for {
		if s.ctx.Err() != nil {
			return
		}

		frame, ok := s.queue.Pop(250 * time.Millisecond)
		if !ok {
			continue
		}

		if !s.capsSet {
			caps := fmt.Sprintf(
				"video/x-raw,format=RGB,width=%d,height=%d,framerate=0/1",
				frame.Width, frame.Height,
			)
			s.appsrc.SetProperty("caps", gst.NewCapsFromString(caps))
			s.capsSet = true
			slog.Info("display: caps fixed from first frame", "caps", caps)
		}

		if ret := s.appsrc.PushBuffer(gst.NewBufferFromBytes(frame.Data)); ret != gst.FlowOK {
			atomic.AddUint64(&s.rejected, 1)
			slog.Debug("display: appsrc rejected buffer", "flow", ret, "trace_id", frame.TraceID)
			continue
		}
		atomic.AddUint64(&s.displayed, 1)
	}
}

// monitorLoop surfaces display pipeline problems in the logs. Display
// failures never propagate into the compositing core; the visible symptom
// is simply that no output appears.
func (s *GstSink) monitorLoop() {
	defer s.wg.Done()

	bus := s.pipeline.GetPipelineBus()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}
			if msg.Type() == gst.MessageError {
				gerr := msg.ParseError()
				slog.Error("display: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
				)
			}
		}
	}
}
