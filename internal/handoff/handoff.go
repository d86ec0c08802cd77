// Package handoff implements the bounded producer→consumer slot between a
// decode source and the compositor.
//
// Core Philosophy: "Drop frames, never queue unbounded. Latency > Completeness."
//
// The channel is a fixed-capacity FIFO with a drop-newest overflow policy:
// a producer running ahead of the consumer never blocks, it loses its most
// recent frame instead. The consumer blocks with a timeout so it can re-check
// its running state rather than hang forever on a stalled producer.
package handoff

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/visiona/colmix/internal/types"
)

// ErrInvalidCapacity is returned by New for capacities < 1.
var ErrInvalidCapacity = errors.New("handoff: capacity must be >= 1")

// ChannelStats is a snapshot of channel operational counters.
type ChannelStats struct {
	// Pushed is the number of frames accepted into the buffer.
	Pushed uint64
	// Dropped is the number of incoming frames discarded on overflow.
	Dropped uint64
	// Popped is the number of frames handed to the consumer.
	Popped uint64
	// Timeouts is the number of Pop calls that returned empty.
	Timeouts uint64
}

// Channel is a single-producer/single-consumer bounded FIFO of frames.
//
// Semantics:
//   - Push is non-blocking: on a full buffer the incoming (newest) frame is
//     discarded and the buffered frames are preserved oldest-first.
//   - Pop blocks up to a timeout and returns (nil, false) when it expires.
//
// Push and Pop are safe to call concurrently. Ownership of a frame transfers
// producer → channel → consumer exactly once; the channel never aliases a
// frame's buffer.
type Channel struct {
	ch chan *types.Frame

	pushed   uint64
	dropped  uint64
	popped   uint64
	timeouts uint64
}

// New creates a bounded channel with the given capacity.
func New(capacity int) (*Channel, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Channel{ch: make(chan *types.Frame, capacity)}, nil
}

// Push offers a frame to the channel without blocking.
//
// Returns true if the frame was buffered, false if it was dropped because
// the buffer is full. The producer must not touch frame.Data after a
// successful Push (immutability contract).
func (c *Channel) Push(frame *types.Frame) bool {
	select {
	case c.ch <- frame:
		atomic.AddUint64(&c.pushed, 1)
		return true
	default:
		// Buffer full: preserve the buffered frames, lose the newest.
		atomic.AddUint64(&c.dropped, 1)
		return false
	}
}

// Pop removes the oldest buffered frame, waiting up to timeout for one to
// arrive. Returns (nil, false) on timeout so the caller can re-check its
// running state.
func (c *Channel) Pop(timeout time.Duration) (*types.Frame, bool) {
	select {
	case frame := <-c.ch:
		atomic.AddUint64(&c.popped, 1)
		return frame, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-c.ch:
		atomic.AddUint64(&c.popped, 1)
		return frame, true
	case <-timer.C:
		atomic.AddUint64(&c.timeouts, 1)
		return nil, false
	}
}

// Len returns the number of frames currently buffered.
func (c *Channel) Len() int {
	return len(c.ch)
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int {
	return cap(c.ch)
}

// Stats returns a snapshot of the channel counters (non-blocking).
func (c *Channel) Stats() ChannelStats {
	return ChannelStats{
		Pushed:   atomic.LoadUint64(&c.pushed),
		Dropped:  atomic.LoadUint64(&c.dropped),
		Popped:   atomic.LoadUint64(&c.popped),
		Timeouts: atomic.LoadUint64(&c.timeouts),
	}
}
