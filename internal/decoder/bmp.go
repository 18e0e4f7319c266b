package decoder

import (
	"bytes"
	"fmt"
	"image"

	"golang.org/x/image/bmp"
)

// BMPDecoder decodes bitmap bytes into *image.RGBA.
type BMPDecoder struct{}

func NewBMPDecoder() *BMPDecoder {
	return &BMPDecoder{}
}

func (d *BMPDecoder) Decode(data []byte) (*image.RGBA, error) {
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: bmp: %w", ErrDecode, err)
	}
	return toRGBA(img), nil
}
