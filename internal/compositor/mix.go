package compositor

import "github.com/visiona/colmix/internal/types"

// MixColumns builds a composite frame from two same-shape frames.
//
// The composite starts as a copy of a; every even-indexed column (0-based)
// is then overwritten with b's pixel data at that column, all rows and all
// channels. Odd columns keep a's values unchanged.
//
// Returns nil if the frames differ in shape, or if either Data buffer does
// not match its declared dimensions exactly — a truncated buffer would be
// indexed out of bounds and a row-padded stride would skew every column
// offset. A rejected pair is a recoverable skip, not an error.
func MixColumns(a, b *types.Frame) *types.Frame {
	if a == nil || b == nil || !a.SameShape(b) {
		return nil
	}
	if len(a.Data) != a.Size() || len(b.Data) != b.Size() {
		return nil
	}

	out := a.Clone()
	px := a.Channels
	stride := a.Width * px

	for y := 0; y < a.Height; y++ {
		row := y * stride
		for x := 0; x < a.Width; x += 2 {
			off := row + x*px
			copy(out.Data[off:off+px], b.Data[off:off+px])
		}
	}

	return out
}

// ToRGB converts a BGR frame to RGB in place by swapping the first and
// third channel of every pixel. Frames already in RGB (or with fewer than
// three channels) are returned untouched.
//
// The caller must own the frame; conversion happens on the compositor's
// private copy, never on a buffer shared through a handoff channel.
func ToRGB(f *types.Frame) *types.Frame {
	if f == nil || f.Format != types.FormatBGR || f.Channels < 3 {
		return f
	}

	for off := 0; off+2 < len(f.Data); off += f.Channels {
		f.Data[off], f.Data[off+2] = f.Data[off+2], f.Data[off]
	}
	f.Format = types.FormatRGB

	return f
}
