package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// JPEGEncoder encodes frames as baseline JPEG.
type JPEGEncoder struct {
	quality int
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
// Out of range values are clamped; 0 means the lowest quality.
func NewJPEGEncoder(quality int) *JPEGEncoder {
	e := &JPEGEncoder{}
	e.SetQuality(quality)
	return e
}

func (e *JPEGEncoder) SetQuality(quality int) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	e.quality = quality
}

func (e *JPEGEncoder) Quality() int { return e.quality }

func (e *JPEGEncoder) Format() Format { return FormatJPEG }

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if m, ok := img.(*imaging.Image); ok {
		img = m.ToRGBA()
	}
	var buf bytes.Buffer
	buf.Grow(256 * 1024) // pre-allocate 256KB
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("%w: jpeg: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
