package decode

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// PipelineConfig contains configuration for GStreamer pipeline creation
type PipelineConfig struct {
	// Location is the path of the video file to decode.
	Location string
}

// PipelineElements holds references to GStreamer pipeline elements.
// These references are needed for restart and cleanup.
type PipelineElements struct {
	Pipeline  *gst.Pipeline
	AppSink   *app.Sink
	DecodeBin *gst.Element
}

// CreatePipeline creates and configures a GStreamer decode pipeline for
// file playback.
//
// Pipeline structure:
//
//	filesrc → decodebin → videoconvert → capsfilter(BGR) → appsink
//
// The appsink runs with sync=false and a small non-dropping queue, so the
// streaming thread blocks once the queue is full and decoding throttles to
// the consumer's pace instead of racing ahead of it.
//
// The pipeline is configured but NOT started (state remains NULL).
// Caller must call pipeline.SetState(gst.StatePlaying) to start.
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create filesrc: %w", err)
	}
	filesrc.SetProperty("location", cfg.Location)

	// decodebin picks demuxer/decoder for whatever container the file uses.
	// Its source pad is dynamic and gets linked in the pad-added callback.
	decodebin, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, fmt.Errorf("failed to create decodebin: %w", err)
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0) // 0 = auto-detect cores

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=BGR"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // pacing is done by the source loop
	appsink.SetProperty("max-buffers", 2) // small queue, blocks upstream when full
	appsink.SetProperty("drop", false)    // never drop here; the handoff channel decides

	pipeline.AddMany(filesrc, decodebin, converter, capsfilter, appsink.Element)

	if err := gst.ElementLinkMany(filesrc, decodebin); err != nil {
		return nil, fmt.Errorf("failed to link filesrc to decodebin: %w", err)
	}

	if err := gst.ElementLinkMany(converter, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	// decodebin exposes pads only once the stream type is known.
	decodebin.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		onPadAdded(self, srcPad, converter)
	})

	return &PipelineElements{
		Pipeline:  pipeline,
		AppSink:   appsink,
		DecodeBin: decodebin,
	}, nil
}

// DestroyPipeline cleans up GStreamer pipeline resources.
//
// Sets pipeline state to NULL and releases all resources.
// Safe to call even if pipeline is already destroyed.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}

	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}

	return nil
}

// onPadAdded links decodebin's dynamic video pad to the converter.
//
// decodebin creates one pad per elementary stream; audio pads fail the link
// against videoconvert and are ignored (audio is out of scope).
func onPadAdded(srcElement *gst.Element, srcPad *gst.Pad, sinkElement *gst.Element) {
	slog.Debug("decode: pad-added signal received", "pad", srcPad.GetName())

	sinkPad := sinkElement.GetStaticPad("sink")
	if sinkPad == nil {
		slog.Error("decode: failed to get sink pad from videoconvert")
		return
	}

	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		// Expected for non-video pads (audio streams), harmless.
		slog.Debug("decode: pad not linked",
			"src_pad", srcPad.GetName(),
			"ret", ret,
		)
		return
	}

	slog.Debug("decode: pads linked", "src_pad", srcPad.GetName())
}
