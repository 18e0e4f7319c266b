// Package decoder turns received frame payloads back into images.
package decoder

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/thorpelawrence/scvr/internal/encoder"
)

// ErrDecode wraps every failure of an image decoder.
var ErrDecode = errors.New("decode failed")

// Decoder decodes bytes into an image.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}

// New returns the decoder matching an encoder.Format.
func New(format encoder.Format) (Decoder, error) {
	switch format {
	case encoder.FormatJPEG:
		return NewJPEGDecoder(), nil
	case encoder.FormatBMP:
		return NewBMPDecoder(), nil
	}
	return nil, fmt.Errorf("unknown image format %s", format)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
