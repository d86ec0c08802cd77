// Package session wires two decode sources, their handoff channels and one
// compositor into a running mixing session, and owns the Idle ⇄ Running
// state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/visiona/colmix/internal/compositor"
	"github.com/visiona/colmix/internal/config"
	"github.com/visiona/colmix/internal/decode"
	"github.com/visiona/colmix/internal/display"
	"github.com/visiona/colmix/internal/handoff"
)

// Session errors
var (
	// ErrSourcesNotSet is returned by Start when either source path is missing.
	ErrSourcesNotSet = errors.New("session: both source paths must be set")
	// ErrInvalidSlot is returned by SetSource for slots other than 1 or 2.
	ErrInvalidSlot = errors.New("session: slot must be 1 (odd) or 2 (even)")
)

// slotLabels maps source slots to the labels carried by their frames.
// Slot 1 keeps odd columns, slot 2 supplies even columns.
var slotLabels = [2]string{"odd", "even"}

// Producer is the decode-source surface the controller drives.
// decode.Source implements it; tests substitute fakes.
type Producer interface {
	Start(ctx context.Context) error
	Stop() error
	Stats() decode.SourceStats
}

// Mixer is the compositor surface the controller drives.
type Mixer interface {
	Start(ctx context.Context) error
	Stop() error
	Stats() compositor.Stats
}

// ProducerFactory builds a producer for one source slot.
type ProducerFactory func(label, path string, out *handoff.Channel) (Producer, error)

// MixerFactory builds the compositor over the two handoff channels.
type MixerFactory func(a, b *handoff.Channel, sink display.Sink) Mixer

// Stats aggregates the operational counters of a running session.
type Stats struct {
	Running  bool
	SourceA  decode.SourceStats
	SourceB  decode.SourceStats
	ChannelA handoff.ChannelStats
	ChannelB handoff.ChannelStats
	Mixer    compositor.Stats
}

// Controller owns one mixing session: two producers, two bounded handoff
// channels and a compositor emitting into the presentation sink.
//
// State machine: {Idle, Running}.
//   - Start requires both source paths; starting while Running is a full
//     stop-then-start, so stale goroutines can never overlap a new session.
//   - Stop is idempotent per component; after it returns, no session
//     goroutine survives.
//   - Replacing a source path while Running restarts the session.
type Controller struct {
	cfg  config.MixerConfig
	sink display.Sink

	newProducer ProducerFactory
	newMixer    MixerFactory

	mu      sync.Mutex
	paths   [2]string
	running bool
	baseCtx context.Context

	producers [2]Producer
	channels  [2]*handoff.Channel
	mixer     Mixer
}

// New creates an idle controller. The sink is a collaborator owned by the
// caller; the controller never starts or stops it.
func New(cfg config.MixerConfig, sink display.Sink) *Controller {
	c := &Controller{cfg: cfg, sink: sink}

	c.newProducer = func(label, path string, out *handoff.Channel) (Producer, error) {
		return decode.NewSource(decode.SourceConfig{
			Path:        path,
			Label:       label,
			FallbackFPS: cfg.FallbackFPS,
		}, out)
	}
	c.newMixer = func(a, b *handoff.Channel, sink display.Sink) Mixer {
		return compositor.New(a, b, sink, time.Duration(cfg.PopTimeoutS)*time.Second)
	}

	return c
}

// SetSource assigns a file path to slot 1 (odd columns) or 2 (even
// columns). If a session is running it is restarted with the new source;
// the teardown fully joins the old session before the new one starts.
func (c *Controller) SetSource(slot int, path string) error {
	if slot < 1 || slot > 2 {
		return ErrInvalidSlot
	}
	if path == "" {
		return fmt.Errorf("session: source %d path is empty", slot)
	}

	c.mu.Lock()
	c.paths[slot-1] = path
	running := c.running
	ctx := c.baseCtx
	c.mu.Unlock()

	slog.Info("session: source set", "slot", slot, "label", slotLabels[slot-1], "path", path)

	if running {
		if err := c.Stop(); err != nil {
			return err
		}
		return c.Start(ctx)
	}
	return nil
}

// Source returns the path currently assigned to a slot ("" if unset).
func (c *Controller) Source(slot int) string {
	if slot < 1 || slot > 2 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths[slot-1]
}

// Start transitions Idle → Running. Requires both source paths.
//
// Invoked while already Running it performs a full stop-then-start.
// If any component fails to start (e.g. a source cannot be opened), the
// partially started session is torn down and the controller stays Idle —
// no composite is ever emitted.
func (c *Controller) Start(ctx context.Context) error {
	// Another Start (or a SetSource restart) can slip in between our Stop
	// and the lock re-acquisition, so the running check must repeat until
	// it holds under the lock we build the session with.
	for {
		c.mu.Lock()
		if !c.running {
			break
		}
		c.mu.Unlock()
		if err := c.Stop(); err != nil {
			return err
		}
	}
	defer c.mu.Unlock()

	if c.paths[0] == "" || c.paths[1] == "" {
		return ErrSourcesNotSet
	}

	for i := range c.channels {
		ch, err := handoff.New(c.cfg.QueueCapacity)
		if err != nil {
			return err
		}
		c.channels[i] = ch
	}

	for i := range c.producers {
		p, err := c.newProducer(slotLabels[i], c.paths[i], c.channels[i])
		if err != nil {
			c.teardownLocked()
			return fmt.Errorf("session: source %d: %w", i+1, err)
		}
		c.producers[i] = p
	}

	c.mixer = c.newMixer(c.channels[0], c.channels[1], c.sink)

	for i, p := range c.producers {
		if err := p.Start(ctx); err != nil {
			c.teardownLocked()
			return fmt.Errorf("session: source %d: %w", i+1, err)
		}
	}
	if err := c.mixer.Start(ctx); err != nil {
		c.teardownLocked()
		return fmt.Errorf("session: compositor: %w", err)
	}

	c.baseCtx = ctx
	c.running = true

	slog.Info("session: running",
		"source_1", c.paths[0],
		"source_2", c.paths[1],
		"queue_capacity", c.cfg.QueueCapacity,
	)
	return nil
}

// Stop transitions Running → Idle. Joins the compositor and both sources
// (each Stop is idempotent, so ordering does not affect correctness) and
// clears all references. After Stop returns, no background goroutine of
// the session survives. Safe to call when Idle.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil // Already idle (idempotent)
	}

	c.teardownLocked()
	c.running = false

	slog.Info("session: stopped")
	return nil
}

// teardownLocked stops and clears every live component. Caller holds mu.
func (c *Controller) teardownLocked() {
	if c.mixer != nil {
		if err := c.mixer.Stop(); err != nil {
			slog.Warn("session: compositor stop failed", "error", err)
		}
		c.mixer = nil
	}
	for i, p := range c.producers {
		if p == nil {
			continue
		}
		if err := p.Stop(); err != nil {
			slog.Warn("session: source stop failed", "slot", i+1, "error", err)
		}
		c.producers[i] = nil
	}
	for i := range c.channels {
		c.channels[i] = nil
	}
}

// Running reports whether a session is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stats returns a snapshot of the session's counters. Zero-valued when Idle.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Running: c.running}
	if !c.running {
		return stats
	}

	stats.SourceA = c.producers[0].Stats()
	stats.SourceB = c.producers[1].Stats()
	stats.ChannelA = c.channels[0].Stats()
	stats.ChannelB = c.channels[1].Stats()
	stats.Mixer = c.mixer.Stats()
	return stats
}
