// Package display defines the presentation sink boundary.
//
// The compositing core only requires that a sink accepts composite frames
// from a foreign goroutine; how (and whether) they reach a screen is the
// sink's business. The GStreamer implementation lives in gst.go, and
// headless runs use NullSink.
package display

import (
	"context"

	"github.com/visiona/colmix/internal/types"
)

// Sink receives display-ready composite frames.
//
// Display is called from the compositor goroutine and must be safe to call
// from outside the sink's own thread of control; implementations queue the
// frame for their own delivery loop rather than rendering inline.
type Sink interface {
	// Start prepares the sink for frames. Must be called before Display.
	Start(ctx context.Context) error
	// Display hands a frame to the sink. Never blocks the caller; a sink
	// that cannot keep up drops frames.
	Display(frame *types.Frame)
	// SetFullscreen toggles fullscreen presentation (best-effort; sinks
	// without a fullscreen notion ignore it).
	SetFullscreen(enabled bool)
	// Stop tears the sink down. Blocks until its delivery loop has exited.
	// Idempotent.
	Stop() error
}

// NullSink discards every frame. Used for headless runs and as the
// fallback when no video sink is configured.
type NullSink struct{}

// Start implements Sink.
func (*NullSink) Start(context.Context) error { return nil }

// Display implements Sink.
func (*NullSink) Display(*types.Frame) {}

// SetFullscreen implements Sink.
func (*NullSink) SetFullscreen(bool) {}

// Stop implements Sink.
func (*NullSink) Stop() error { return nil }
