package imaging

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame means a raw buffer does not hold the pixels its
// dimensions promise.
var ErrMalformedFrame = errors.New("malformed frame")

// RawFrame is an interleaved 4-channel buffer (BGRA or BGRX) as produced by
// a capture backend. The buffer is borrowed: it must not be retained.
type RawFrame struct {
	Pix        []byte
	Dimensions Dimensions
}

// Stride returns the row length in bytes implied by the buffer size.
func (f RawFrame) Stride() int {
	if f.Dimensions.Height == 0 {
		return 0
	}
	return len(f.Pix) / int(f.Dimensions.Height)
}

// Convert drops the 4th channel of every pixel of raw and returns the
// result as a canonical image. Channel order is kept as is.
func Convert(raw RawFrame) (*Image, error) {
	w, h := int(raw.Dimensions.Width), int(raw.Dimensions.Height)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: zero dimensions %s", ErrMalformedFrame, raw.Dimensions)
	}
	stride := raw.Stride()
	if stride < w*4 {
		return nil, fmt.Errorf("%w: %d bytes is too short for %s (stride %d < %d)",
			ErrMalformedFrame, len(raw.Pix), raw.Dimensions, stride, w*4)
	}

	img := New(w, h)
	for y := 0; y < h; y++ {
		src := raw.Pix[stride*y : stride*y+w*4]
		dst := img.Pix[img.Stride*y : img.Stride*(y+1)]
		for x := 0; x < w; x++ {
			dst[3*x] = src[4*x]
			dst[3*x+1] = src[4*x+1]
			dst[3*x+2] = src[4*x+2]
		}
	}
	return img, nil
}
