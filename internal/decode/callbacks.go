package decode

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/visiona/colmix/internal/types"
)

// bgrChannels is the channel count of the fixed appsink caps.
const bgrChannels = 3

// callbackContext holds state needed by the appsink callback.
//
// The callback runs on GStreamer's streaming thread. It hands frames to the
// pacing loop through a blocking send, which is what throttles decoding to
// the consumer's pace (the appsink queue fills and upstream blocks).
type callbackContext struct {
	frames chan<- *types.Frame
	done   <-chan struct{}

	label       string
	fallbackFPS float64

	seq uint64

	// Negotiated caps, resolved from the first sample that carries them.
	info       streamInfo
	infoOK     bool
	intervalNs *int64 // published to the pacing loop
}

// onNewSample is called by GStreamer when a decoded frame is available.
//
// It copies the mapped buffer (GStreamer reuses it), stamps sequence,
// timestamp and trace ID, and hands the frame to the pacing loop. The send
// blocks until the pacer takes the frame or the source is stopped.
func onNewSample(sink *app.Sink, cc *callbackContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		// A single bad sample should not kill the pipeline.
		slog.Warn("decode: failed to pull sample from appsink, skipping frame", "source", cc.label)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("decode: failed to get buffer from sample, skipping frame", "source", cc.label)
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("decode: empty buffer received", "source", cc.label)
		return gst.FlowOK
	}

	// Copy frame data (GStreamer will reuse the buffer)
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	if !cc.ensureInfo(func() (streamInfo, error) { return capsFromPad(sink, cc.fallbackFPS) }) {
		return gst.FlowOK
	}

	frame := &types.Frame{
		Seq:       atomic.AddUint64(&cc.seq, 1),
		Timestamp: time.Now(),
		Width:     cc.info.Width,
		Height:    cc.info.Height,
		Channels:  bgrChannels,
		Format:    types.FormatBGR,
		Data:      frameData,
		Source:    cc.label,
		TraceID:   uuid.New().String(),
	}

	select {
	case cc.frames <- frame:
	case <-cc.done:
		// Source stopping; let the streaming thread unwind.
	}

	return gst.FlowOK
}

// ensureInfo resolves the stream caps on first use, retrying on every
// sample until resolution succeeds. Frames are emitted only once the caps
// are known; the callback runs on the single streaming thread, so no
// locking is needed.
func (cc *callbackContext) ensureInfo(resolve func() (streamInfo, error)) bool {
	if cc.infoOK {
		return true
	}

	info, err := resolve()
	if err != nil {
		slog.Error("decode: failed to read stream caps", "source", cc.label, "error", err)
		return false
	}

	cc.info = info
	cc.infoOK = true
	atomic.StoreInt64(cc.intervalNs, int64(info.Interval))

	slog.Info("decode: stream caps negotiated",
		"source", cc.label,
		"width", info.Width,
		"height", info.Height,
		"interval", info.Interval,
	)
	return true
}

// capsFromPad reads the negotiated caps off the appsink pad.
func capsFromPad(sink *app.Sink, fallbackFPS float64) (streamInfo, error) {
	pad := sink.Element.GetStaticPad("sink")
	if pad == nil {
		return streamInfo{}, fmt.Errorf("no sink pad on appsink")
	}
	return infoFromCaps(pad.GetCurrentCaps(), fallbackFPS)
}
