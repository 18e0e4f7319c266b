// Package encoder turns canonical stereo canvases into image file bytes.
package encoder

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// ErrEncode wraps every failure of an image encoder.
var ErrEncode = errors.New("encode failed")

// Encoder encodes an image into bytes.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	Format() Format
}

// Format is the image file format of a frame payload.
type Format int

const (
	FormatJPEG Format = iota
	FormatBMP
)

// ParseFormat accepts jpeg, jpg, bmp and bitmap in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "bmp", "bitmap":
		return FormatBMP, nil
	}
	return 0, fmt.Errorf("'%s' isn't a valid image format (jpeg, bmp)", s)
}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "image-format" }

// New returns the encoder for format. quality only applies to JPEG.
func New(format Format, quality int) (Encoder, error) {
	switch format {
	case FormatJPEG:
		return NewJPEGEncoder(quality), nil
	case FormatBMP:
		return NewBMPEncoder(), nil
	}
	return nil, fmt.Errorf("unknown image format %s", format)
}

// checkImage rejects buffers that disagree with their declared bounds.
func checkImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrEncode)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: empty image %v", ErrEncode, img.Bounds())
	}
	if m, ok := img.(*imaging.Image); ok {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
	}
	return nil
}
