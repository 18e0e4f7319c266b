package encoder

import (
	"bytes"
	"fmt"
	"image"

	"golang.org/x/image/bmp"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// BMPEncoder encodes frames as uncompressed 24-bit bitmaps.
type BMPEncoder struct{}

func NewBMPEncoder() *BMPEncoder {
	return &BMPEncoder{}
}

func (e *BMPEncoder) Format() Format { return FormatBMP }

func (e *BMPEncoder) Encode(img image.Image) ([]byte, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	// An opaque *image.RGBA is written as 24-bit rows.
	if m, ok := img.(*imaging.Image); ok {
		img = m.ToRGBA()
	}
	b := img.Bounds()
	var buf bytes.Buffer
	buf.Grow(54 + b.Dx()*b.Dy()*3)
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: bmp: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
