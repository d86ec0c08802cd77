package compositor

import (
	"bytes"
	"testing"

	"github.com/visiona/colmix/internal/types"
)

// solidFrame builds a width×height×3 frame with every pixel set to the
// given channel triple.
func solidFrame(width, height int, pixel [3]byte) *types.Frame {
	data := make([]byte, width*height*3)
	for off := 0; off < len(data); off += 3 {
		data[off] = pixel[0]
		data[off+1] = pixel[1]
		data[off+2] = pixel[2]
	}
	return &types.Frame{
		Width:    width,
		Height:   height,
		Channels: 3,
		Format:   types.FormatBGR,
		Data:     data,
	}
}

// patternFrame builds a frame whose bytes encode their own position, so
// column provenance is verifiable byte-exactly.
func patternFrame(width, height int, salt byte) *types.Frame {
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = byte(i) ^ salt
	}
	return &types.Frame{
		Width:    width,
		Height:   height,
		Channels: 3,
		Format:   types.FormatBGR,
		Data:     data,
	}
}

func pixelAt(f *types.Frame, x, y int) []byte {
	off := (y*f.Width + x) * f.Channels
	return f.Data[off : off+f.Channels]
}

// TestMixColumnsSolidColors validates the column rule on the canonical
// scenario: A all-red, B all-blue, 4×4×3 → columns 0 and 2 blue, columns
// 1 and 3 red.
func TestMixColumnsSolidColors(t *testing.T) {
	red := [3]byte{0, 0, 255} // BGR
	blue := [3]byte{255, 0, 0}

	a := solidFrame(4, 4, red)
	b := solidFrame(4, 4, blue)

	mixed := MixColumns(a, b)
	if mixed == nil {
		t.Fatal("MixColumns() returned nil for same-shape frames")
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := red
			if x%2 == 0 {
				want = blue
			}
			if got := pixelAt(mixed, x, y); !bytes.Equal(got, want[:]) {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// TestMixColumnsByteExact validates provenance of every byte: even columns
// equal B's bytes, odd columns equal A's, across all rows and channels.
// Odd frame width exercises the final even column (0,2,4 of width 5).
func TestMixColumnsByteExact(t *testing.T) {
	const width, height = 5, 3

	a := patternFrame(width, height, 0x00)
	b := patternFrame(width, height, 0xA5)

	mixed := MixColumns(a, b)
	if mixed == nil {
		t.Fatal("MixColumns() returned nil for same-shape frames")
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := a
			if x%2 == 0 {
				src = b
			}
			if got, want := pixelAt(mixed, x, y), pixelAt(src, x, y); !bytes.Equal(got, want) {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// TestMixColumnsLeavesInputsUntouched validates the ownership contract:
// mixing never writes into either input buffer.
func TestMixColumnsLeavesInputsUntouched(t *testing.T) {
	a := patternFrame(4, 4, 0x00)
	b := patternFrame(4, 4, 0xA5)
	aBefore := append([]byte(nil), a.Data...)
	bBefore := append([]byte(nil), b.Data...)

	mixed := MixColumns(a, b)
	if mixed == nil {
		t.Fatal("MixColumns() returned nil")
	}
	mixed.Data[0] ^= 0xFF // composite owns its buffer

	if !bytes.Equal(a.Data, aBefore) {
		t.Error("MixColumns() modified frame A")
	}
	if !bytes.Equal(b.Data, bBefore) {
		t.Error("MixColumns() modified frame B")
	}
}

// TestMixColumnsShapeMismatch validates that differing dimensions yield no
// composite: 4×4 against 8×8 must return nil.
func TestMixColumnsShapeMismatch(t *testing.T) {
	cases := []struct {
		name string
		a, b *types.Frame
	}{
		{"different size", solidFrame(4, 4, [3]byte{1, 2, 3}), solidFrame(8, 8, [3]byte{1, 2, 3})},
		{"different width", solidFrame(4, 4, [3]byte{1, 2, 3}), solidFrame(6, 4, [3]byte{1, 2, 3})},
		{"different height", solidFrame(4, 4, [3]byte{1, 2, 3}), solidFrame(4, 6, [3]byte{1, 2, 3})},
		{"nil A", nil, solidFrame(4, 4, [3]byte{1, 2, 3})},
		{"nil B", solidFrame(4, 4, [3]byte{1, 2, 3}), nil},
	}

	for _, tc := range cases {
		if mixed := MixColumns(tc.a, tc.b); mixed != nil {
			t.Errorf("%s: MixColumns() = %v, want nil", tc.name, mixed)
		}
	}
}

// TestMixColumnsRejectsBadBuffers validates that a Data buffer disagreeing
// with the declared dimensions yields no composite: a short buffer would
// panic in the column copy and a stride-padded buffer would interleave the
// wrong bytes.
func TestMixColumnsRejectsBadBuffers(t *testing.T) {
	good := solidFrame(4, 4, [3]byte{1, 2, 3})

	short := solidFrame(4, 4, [3]byte{1, 2, 3})
	short.Data = short.Data[:len(short.Data)-3]

	padded := solidFrame(4, 4, [3]byte{1, 2, 3})
	padded.Data = append(padded.Data, make([]byte, 16)...) // 4-byte row alignment

	cases := []struct {
		name string
		a, b *types.Frame
	}{
		{"short A", short, good},
		{"short B", good, short},
		{"padded A", padded, good},
		{"padded B", good, padded},
	}

	for _, tc := range cases {
		if mixed := MixColumns(tc.a, tc.b); mixed != nil {
			t.Errorf("%s: MixColumns() = %v, want nil", tc.name, mixed)
		}
	}
}

// TestToRGB validates the fixed BGR→RGB reorder and that non-BGR frames
// pass through untouched.
func TestToRGB(t *testing.T) {
	f := &types.Frame{
		Width: 2, Height: 1, Channels: 3,
		Format: types.FormatBGR,
		Data:   []byte{1, 2, 3, 4, 5, 6},
	}

	got := ToRGB(f)
	if got.Format != types.FormatRGB {
		t.Errorf("Format = %s, want %s", got.Format, types.FormatRGB)
	}
	if want := []byte{3, 2, 1, 6, 5, 4}; !bytes.Equal(got.Data, want) {
		t.Errorf("Data = %v, want %v", got.Data, want)
	}

	// Already RGB: no further swapping.
	again := ToRGB(got)
	if want := []byte{3, 2, 1, 6, 5, 4}; !bytes.Equal(again.Data, want) {
		t.Errorf("ToRGB() on RGB frame changed data to %v", again.Data)
	}
}
