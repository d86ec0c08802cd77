package types

import "time"

// PixelFormat identifies the channel ordering of a frame's interleaved data.
type PixelFormat string

const (
	// FormatBGR is the layout emitted by the decode pipelines.
	FormatBGR PixelFormat = "BGR"
	// FormatRGB is the layout consumed by the display sink.
	FormatRGB PixelFormat = "RGB"
)

// Frame represents a single decoded video frame.
//
// Data is row-major interleaved (Height × Width × Channels). Dimensions are
// constant for the lifetime of one decode session but may differ between
// sources.
//
// Immutability contract: once a frame is pushed into a handoff channel its
// Data must not be written again. The compositor works on its own copy.
type Frame struct {
	// Seq is the monotonic sequence number within one decode session.
	Seq uint64
	// Timestamp is when the frame was decoded (process time, not media time).
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Channels per pixel (3 for BGR/RGB)
	Channels int
	// Format is the channel ordering of Data.
	Format PixelFormat
	// Data contains the raw interleaved pixel bytes.
	Data []byte
	// Source identifies the decode session that produced the frame
	// (e.g. "odd", "even").
	Source string
	// TraceID is a unique identifier for correlating a frame across the
	// pipeline in logs.
	TraceID string
}

// Size returns the expected byte length of Data for the frame's dimensions.
func (f *Frame) Size() int {
	return f.Height * f.Width * f.Channels
}

// SameShape reports whether two frames have identical dimensions and
// channel count. Only same-shape frames can be composited.
func (f *Frame) SameShape(other *Frame) bool {
	if other == nil {
		return false
	}
	return f.Width == other.Width &&
		f.Height == other.Height &&
		f.Channels == other.Channels
}

// Clone returns a deep copy of the frame with its own Data buffer.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Data = make([]byte, len(f.Data))
	copy(c.Data, f.Data)
	return &c
}
