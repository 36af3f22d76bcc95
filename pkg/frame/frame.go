package frame

import (
	"fmt"
	"image"
)

// Frame is an immutable raster: row-major, top-left origin, 3 (RGB) or
// 4 (RGBA/BGRA) bytes per pixel. Conversions always allocate a new frame,
// the source is never written to.
type Frame struct {
	W, H int
	Ch   int
	Pix  []byte
}

// PixelFormat is the channel order of a 4-channel frame.
type PixelFormat int

const (
	FormatRGBA PixelFormat = iota
	FormatBGRA
)

// Orientation flips applied to a frame after resize and channel reorder.
type Orientation int

const (
	OrientNone Orientation = iota
	FlipV
	FlipH
	FlipBoth
)

func NewRGB(w, h int, pix []byte) Frame  { return Frame{W: w, H: h, Ch: 3, Pix: pix} }
func NewRGBA(w, h int, pix []byte) Frame { return Frame{W: w, H: h, Ch: 4, Pix: pix} }

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool { return f.W == 0 || f.H == 0 }

func (f Frame) Size() int { return f.W * f.H * f.Ch }

// Valid reports whether the declared dimensions match the buffer length.
func (f Frame) Valid() bool { return len(f.Pix) == f.Size() && (f.Ch == 3 || f.Ch == 4) }

// RGBA wraps a 4-channel frame as image.RGBA sharing the pixel buffer.
func (f Frame) RGBA() *image.RGBA {
	return &image.RGBA{Pix: f.Pix, Stride: f.W * 4, Rect: image.Rect(0, 0, f.W, f.H)}
}

// Opaque is an image.RGBA wrapper that drops the alpha channel when
// encoded, so JPEG/PNG encoders treat the frame as fully opaque.
type Opaque struct{ *image.RGBA }

func (Opaque) Opaque() bool { return true }

func ParsePixelFormat(s string) (PixelFormat, error) {
	switch s {
	case "rgba", "RGBA":
		return FormatRGBA, nil
	case "bgra", "BGRA":
		return FormatBGRA, nil
	}
	return 0, fmt.Errorf("unknown pixel format %q", s)
}

func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "none", "":
		return OrientNone, nil
	case "flip_v", "vertical":
		return FlipV, nil
	case "flip_h", "horizontal":
		return FlipH, nil
	case "flip_both", "both":
		return FlipBoth, nil
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}
