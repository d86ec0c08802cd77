package decode

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// busPollInterval bounds each bus poll so cancellation stays responsive.
const busPollInterval = 50 * time.Millisecond

// busEventKind classifies the bus messages the source acts on.
type busEventKind int

const (
	busEventNone busEventKind = iota
	busEventEOS
	busEventError
)

// busEvent is one observed pipeline bus message.
type busEvent struct {
	kind  busEventKind
	err   string
	debug string
}

// busPoller abstracts the pipeline bus so the monitor loop can be driven
// without a live pipeline.
type busPoller interface {
	// poll waits up to timeout for the next message and classifies it.
	// Quiet polls return a zero busEvent.
	poll(timeout time.Duration) busEvent
}

// monitor watches the decode pipeline bus and triggers a playback restart
// on end-of-stream and on decode errors. Neither condition is ever fatal;
// playback loops until the source is stopped.
type monitor struct {
	source  string
	bus     busPoller
	restart func()
}

// run polls the bus until ctx is cancelled.
func (m *monitor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		default:
			ev := m.bus.poll(busPollInterval)
			switch ev.kind {
			case busEventEOS:
				slog.Info("decode: end of stream, looping to start", "source", m.source)
				m.restart()

			case busEventError:
				// A decode failure restarts identically to EOS. This can
				// mask genuinely corrupt files; the error is logged so the
				// condition stays visible.
				slog.Warn("decode: pipeline error, restarting from start",
					"source", m.source,
					"error", ev.err,
					"debug", ev.debug,
				)
				m.restart()
			}
		}
	}
}

// gstBusPoller adapts a pipeline bus to the busPoller interface.
type gstBusPoller struct {
	bus *gst.Bus
}

func (p *gstBusPoller) poll(timeout time.Duration) busEvent {
	msg := p.bus.TimedPop(timeout)
	if msg == nil {
		return busEvent{}
	}

	switch msg.Type() {
	case gst.MessageEOS:
		return busEvent{kind: busEventEOS}
	case gst.MessageError:
		gerr := msg.ParseError()
		return busEvent{kind: busEventError, err: gerr.Error(), debug: gerr.DebugString()}
	}
	return busEvent{}
}
