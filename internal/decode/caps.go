package decode

import (
	"fmt"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// streamInfo is the subset of negotiated caps the source needs.
type streamInfo struct {
	Width    int
	Height   int
	Interval time.Duration // native frame interval
}

// infoFromCaps extracts width, height and the native frame interval from
// negotiated caps. Missing or zero framerate (e.g. still-image sources)
// falls back to fallbackFPS.
func infoFromCaps(caps *gst.Caps, fallbackFPS float64) (streamInfo, error) {
	info := streamInfo{Interval: intervalFromFramerate("", fallbackFPS)}

	if caps == nil || caps.GetSize() == 0 {
		return info, fmt.Errorf("no caps negotiated")
	}

	structure := caps.GetStructureAt(0)

	if val, err := structure.GetValue("width"); err == nil {
		if width, ok := val.(int); ok {
			info.Width = width
		}
	}
	if val, err := structure.GetValue("height"); err == nil {
		if height, ok := val.(int); ok {
			info.Height = height
		}
	}
	if val, err := structure.GetValue("framerate"); err == nil {
		// Framerate is a Gst.Fraction; go through its string form.
		info.Interval = intervalFromFramerate(fmt.Sprintf("%v", val), fallbackFPS)
	}

	if info.Width <= 0 || info.Height <= 0 {
		return info, fmt.Errorf("caps carry no video dimensions: %s", caps.String())
	}

	return info, nil
}

// intervalFromFramerate converts a framerate string to a frame interval.
// Examples: "30/1" → 33.3ms, "30000/1001" → 33.37ms, "25" → 40ms.
// Zero, unparsable or empty framerates fall back to fallbackFPS.
func intervalFromFramerate(framerate string, fallbackFPS float64) time.Duration {
	fps := fallbackFPS

	var numerator, denominator int
	if _, err := fmt.Sscanf(framerate, "%d/%d", &numerator, &denominator); err == nil {
		if numerator > 0 && denominator > 0 {
			fps = float64(numerator) / float64(denominator)
		}
	} else if _, err := fmt.Sscanf(framerate, "%d", &numerator); err == nil {
		if numerator > 0 {
			fps = float64(numerator)
		}
	}

	if fps <= 0 {
		fps = 30
	}

	return time.Duration(float64(time.Second) / fps)
}

// nextDeadline computes the emission deadline for the upcoming frame.
//
// Deadlines advance by exactly one interval from the previous deadline so
// sleep jitter does not accumulate into drift. The first frame, and any
// frame arriving after the schedule has slipped by more than one interval
// (restart, long stall), resynchronizes to now instead of bursting to
// catch up.
func nextDeadline(prev, now time.Time, interval time.Duration) time.Time {
	if prev.IsZero() {
		return now
	}
	next := prev.Add(interval)
	if now.After(next.Add(interval)) {
		return now
	}
	return next
}
