package frame

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// ErrUnsupportedChannels is returned for frames that are neither RGB nor RGBA.
var ErrUnsupportedChannels = errors.New("frame: unsupported channel count")

// Convert produces a 4-channel frame of exactly w×h pixels in the requested
// channel order and orientation. 3-channel input gets alpha 255. Rescaling
// uses x/image/draw.ApproxBiLinear; its exact byte output is part of this
// function's contract. Flips run last, after resize and channel reorder.
//
// Zero-sized input or target is not an error and yields an empty frame.
func Convert(f Frame, w, h int, format PixelFormat, o Orientation) (Frame, error) {
	if f.Ch != 3 && f.Ch != 4 {
		return Frame{}, ErrUnsupportedChannels
	}
	if f.Empty() || w <= 0 || h <= 0 {
		return Frame{Ch: 4}, nil
	}

	out := expand(f)
	if f.W != w || f.H != h {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), out.RGBA(), out.RGBA().Bounds(), draw.Src, nil)
		out = NewRGBA(w, h, dst.Pix)
	}
	if format == FormatBGRA {
		swapRB(out.Pix)
	}
	switch o {
	case FlipV:
		flipV(out)
	case FlipH:
		flipH(out)
	case FlipBoth:
		flipV(out)
		flipH(out)
	}
	return out, nil
}

// expand copies f into a fresh RGBA buffer, synthesizing alpha for RGB input.
func expand(f Frame) Frame {
	pix := make([]byte, f.W*f.H*4)
	if f.Ch == 4 {
		copy(pix, f.Pix)
		return NewRGBA(f.W, f.H, pix)
	}
	for s, d := 0, 0; s < len(f.Pix); s, d = s+3, d+4 {
		pix[d] = f.Pix[s]
		pix[d+1] = f.Pix[s+1]
		pix[d+2] = f.Pix[s+2]
		pix[d+3] = 0xff
	}
	return NewRGBA(f.W, f.H, pix)
}

func swapRB(pix []byte) {
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// flipV reverses row order in place.
func flipV(f Frame) {
	stride := f.W * 4
	tmp := make([]byte, stride)
	for top, bot := 0, (f.H-1)*stride; top < bot; top, bot = top+stride, bot-stride {
		copy(tmp, f.Pix[top:top+stride])
		copy(f.Pix[top:top+stride], f.Pix[bot:bot+stride])
		copy(f.Pix[bot:bot+stride], tmp)
	}
}

// flipH reverses pixel order within each row in place.
func flipH(f Frame) {
	stride := f.W * 4
	for y := 0; y < f.H; y++ {
		row := f.Pix[y*stride : (y+1)*stride]
		for l, r := 0, stride-4; l < r; l, r = l+4, r-4 {
			for k := 0; k < 4; k++ {
				row[l+k], row[r+k] = row[r+k], row[l+k]
			}
		}
	}
}
