// Package text draws short strings onto images using the bundled font.
package text

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var loadDefault = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

// Default returns the bundled font. It is parsed once per process and
// never modified afterwards.
func Default() (*opentype.Font, error) {
	f, err := loadDefault()
	if err != nil {
		return nil, fmt.Errorf("unable to parse the bundled font: %w", err)
	}
	return f, nil
}

// Renderer draws text of one size and colour. It is not safe for
// concurrent use.
type Renderer struct {
	face   font.Face
	ascent fixed.Int26_6
	color  image.Image
}

// NewRenderer creates a renderer drawing white glyphs 'height' pixels tall.
func NewRenderer(f *opentype.Font, height float64) (*Renderer, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    height,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create a %vpx face: %w", height, err)
	}
	return &Renderer{
		face:   face,
		ascent: face.Metrics().Ascent,
		color:  image.NewUniform(color.White),
	}, nil
}

// Draw renders s with its top-left corner at origin. Glyphs falling outside
// dst are clipped.
func (r *Renderer) Draw(dst draw.Image, origin image.Point, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  r.color,
		Face: r.face,
		Dot:  fixed.P(origin.X, origin.Y).Add(fixed.Point26_6{Y: r.ascent}),
	}
	d.DrawString(s)
}

func (r *Renderer) Close() error {
	return r.face.Close()
}
