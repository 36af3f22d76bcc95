package frame

import (
	"bytes"
	"testing"
)

func TestConvertOutputShape(t *testing.T) {
	tests := []struct {
		name   string
		ch     int
		w, h   int
		tw, th int
		format PixelFormat
	}{
		{name: "rgb to rgba", ch: 3, w: 8, h: 8, tw: 8, th: 8, format: FormatRGBA},
		{name: "rgb to bgra", ch: 3, w: 8, h: 8, tw: 8, th: 8, format: FormatBGRA},
		{name: "rgba to rgba upscale", ch: 4, w: 4, h: 4, tw: 16, th: 8, format: FormatRGBA},
		{name: "rgba to bgra downscale", ch: 4, w: 16, h: 16, tw: 4, th: 4, format: FormatBGRA},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in := Frame{W: test.w, H: test.h, Ch: test.ch, Pix: make([]byte, test.w*test.h*test.ch)}
			out, err := Convert(in, test.tw, test.th, test.format, OrientNone)
			if err != nil {
				t.Fatalf("convert failed: %v", err)
			}
			if out.Ch != 4 {
				t.Errorf("got %v channels, want 4", out.Ch)
			}
			if len(out.Pix) != test.tw*test.th*4 {
				t.Errorf("got %v bytes, want %v", len(out.Pix), test.tw*test.th*4)
			}
		})
	}
}

func TestConvertChannelOrder(t *testing.T) {
	// one red pixel with half alpha
	in := NewRGBA(1, 1, []byte{200, 10, 30, 128})

	got, err := Convert(in, 1, 1, FormatBGRA, OrientNone)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{30, 10, 200, 128}; !bytes.Equal(got.Pix, want) {
		t.Errorf("bgra = %v, want %v", got.Pix, want)
	}

	got, err = Convert(NewRGB(1, 1, []byte{200, 10, 30}), 1, 1, FormatBGRA, OrientNone)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{30, 10, 200, 255}; !bytes.Equal(got.Pix, want) {
		t.Errorf("rgb->bgra = %v, want %v", got.Pix, want)
	}
}

func TestConvertOrientation(t *testing.T) {
	// 2x2 frame with distinct corner pixels
	px := func(v byte) []byte { return []byte{v, v, v, 255} }
	in := NewRGBA(2, 2, bytes.Join([][]byte{px(1), px(2), px(3), px(4)}, nil))

	tests := []struct {
		o    Orientation
		want [][]byte
	}{
		{OrientNone, [][]byte{px(1), px(2), px(3), px(4)}},
		{FlipV, [][]byte{px(3), px(4), px(1), px(2)}},
		{FlipH, [][]byte{px(2), px(1), px(4), px(3)}},
		{FlipBoth, [][]byte{px(4), px(3), px(2), px(1)}},
	}
	for _, test := range tests {
		out, err := Convert(in, 2, 2, FormatRGBA, test.o)
		if err != nil {
			t.Fatal(err)
		}
		if want := bytes.Join(test.want, nil); !bytes.Equal(out.Pix, want) {
			t.Errorf("orientation %v = %v, want %v", test.o, out.Pix, want)
		}
	}
}

func TestConvertSourceUntouched(t *testing.T) {
	src := []byte{200, 10, 30, 128}
	in := NewRGBA(1, 1, src)
	if _, err := Convert(in, 1, 1, FormatBGRA, FlipBoth); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(src, []byte{200, 10, 30, 128}) {
		t.Errorf("source frame was mutated: %v", src)
	}
}

func TestConvertErrors(t *testing.T) {
	if _, err := Convert(Frame{W: 1, H: 1, Ch: 2, Pix: make([]byte, 2)}, 1, 1, FormatRGBA, OrientNone); err != ErrUnsupportedChannels {
		t.Errorf("2ch err = %v, want ErrUnsupportedChannels", err)
	}
	out, err := Convert(Frame{Ch: 4}, 8, 8, FormatRGBA, OrientNone)
	if err != nil {
		t.Errorf("zero-sized frame err = %v, want nil", err)
	}
	if !out.Empty() {
		t.Errorf("zero-sized frame should convert to an empty frame, got %vx%v", out.W, out.H)
	}
}
