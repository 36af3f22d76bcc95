package sink

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
)

// encodeJPEG resizes the frame to w×h and compresses it at the given
// quality. An empty frame encodes to nil, which callers skip.
func encodeJPEG(f frame.Frame, w, h, quality int) ([]byte, error) {
	conv, err := frame.Convert(f, w, h, frame.FormatRGBA, frame.OrientNone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatUnsupported, err)
	}
	if conv.Empty() {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Opaque{RGBA: conv.RGBA()}, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatUnsupported, err)
	}
	return buf.Bytes(), nil
}
