// Package compositor pairs frames from the two handoff channels and emits
// column-interleaved composite frames to the presentation sink.
package compositor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visiona/colmix/internal/display"
	"github.com/visiona/colmix/internal/handoff"
)

// Stats is a snapshot of compositor operational counters.
type Stats struct {
	// Pairs is the number of composite frames emitted.
	Pairs uint64
	// Mismatches is the number of pairs discarded for differing shapes.
	Mismatches uint64
	// TimeoutsA / TimeoutsB count pop timeouts per input channel.
	TimeoutsA uint64
	TimeoutsB uint64
}

// Compositor consumes one frame from each channel per iteration, validates
// shape compatibility, interleaves columns (even columns from B over a copy
// of A), converts to the sink's channel order and emits the result.
//
// Failure semantics are local and silent: a pop timeout retries the loop, a
// shape mismatch discards the pair. Nothing the data path does is fatal.
type Compositor struct {
	chA, chB   *handoff.Channel
	sink       display.Sink
	popTimeout time.Duration

	pairs      uint64
	mismatches uint64
	timeoutsA  uint64
	timeoutsB  uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New creates a compositor reading from chA (odd columns) and chB (even
// columns), emitting to sink. popTimeout bounds each channel wait.
func New(chA, chB *handoff.Channel, sink display.Sink, popTimeout time.Duration) *Compositor {
	return &Compositor{
		chA:        chA,
		chB:        chB,
		sink:       sink,
		popTimeout: popTimeout,
	}
}

// Start launches the compositing loop. Returns an error if already started.
func (c *Compositor) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("compositor: already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.run()

	slog.Info("compositor: started", "pop_timeout", c.popTimeout)
	return nil
}

// Stop cancels the loop and blocks until it has fully exited. After Stop
// returns no further frames reach the sink, even if the input channels
// still hold decodable data. Idempotent.
func (c *Compositor) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil // Already stopped (idempotent)
	}
	c.started = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	slog.Info("compositor: stopped",
		"pairs", atomic.LoadUint64(&c.pairs),
		"mismatches", atomic.LoadUint64(&c.mismatches),
	)
	return nil
}

// run is the compositing loop. One pop per channel per attempt; partial
// pairs are never composited.
func (c *Compositor) run() {
	defer c.wg.Done()

	for {
		if c.ctx.Err() != nil {
			return
		}

		frameA, ok := c.chA.Pop(c.popTimeout)
		if !ok {
			atomic.AddUint64(&c.timeoutsA, 1)
			continue
		}

		frameB, ok := c.chB.Pop(c.popTimeout)
		if !ok {
			atomic.AddUint64(&c.timeoutsB, 1)
			continue
		}

		// Cancellation is checked at loop granularity; a pair popped just
		// before Stop may still compose, but nothing is emitted after the
		// loop exits and Stop has joined it.
		if c.ctx.Err() != nil {
			return
		}

		mixed := MixColumns(frameA, frameB)
		if mixed == nil {
			atomic.AddUint64(&c.mismatches, 1)
			slog.Debug("compositor: shape mismatch, pair discarded",
				"a", fmt.Sprintf("%dx%dx%d", frameA.Width, frameA.Height, frameA.Channels),
				"b", fmt.Sprintf("%dx%dx%d", frameB.Width, frameB.Height, frameB.Channels),
				"trace_a", frameA.TraceID,
				"trace_b", frameB.TraceID,
			)
			continue
		}

		c.sink.Display(ToRGB(mixed))
		atomic.AddUint64(&c.pairs, 1)
	}
}

// Stats returns a snapshot of the compositor counters.
func (c *Compositor) Stats() Stats {
	return Stats{
		Pairs:      atomic.LoadUint64(&c.pairs),
		Mismatches: atomic.LoadUint64(&c.mismatches),
		TimeoutsA:  atomic.LoadUint64(&c.timeoutsA),
		TimeoutsB:  atomic.LoadUint64(&c.timeoutsB),
	}
}
