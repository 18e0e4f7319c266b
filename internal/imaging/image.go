package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// BytesPerPixel is the size of one canonical pixel.
const BytesPerPixel = 3

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  uint32
	Height uint32
}

// Valid reports whether both extents are non-zero.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Image is the canonical 3-channel image passed between pipeline stages.
// Pixels are tightly packed in B, G, R order, the order the capture
// backends deliver them in.
type Image struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

var (
	_ image.Image = (*Image)(nil)
	_ draw.Image  = (*Image)(nil)
)

// New allocates a black canonical image.
func New(width, height int) *Image {
	return &Image{
		Pix:    make([]uint8, width*height*BytesPerPixel),
		Stride: width * BytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func (m *Image) ColorModel() color.Model { return color.RGBAModel }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) Opaque() bool { return true }

// Dimensions returns the image extents.
func (m *Image) Dimensions() Dimensions {
	return Dimensions{Width: uint32(m.Rect.Dx()), Height: uint32(m.Rect.Dy())}
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (m *Image) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*BytesPerPixel
}

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return color.RGBA{}
	}
	i := m.PixOffset(x, y)
	return color.RGBA{R: m.Pix[i+2], G: m.Pix[i+1], B: m.Pix[i], A: 0xff}
}

func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return
	}
	r, g, b, _ := c.RGBA()
	i := m.PixOffset(x, y)
	m.Pix[i] = uint8(b >> 8)
	m.Pix[i+1] = uint8(g >> 8)
	m.Pix[i+2] = uint8(r >> 8)
}

// BGR returns the raw channels of the pixel at (x, y).
func (m *Image) BGR(x, y int) (b, g, r uint8) {
	i := m.PixOffset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Validate checks that the pixel buffer covers the declared bounds.
func (m *Image) Validate() error {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("empty image %v", m.Rect)
	}
	if m.Stride < w*BytesPerPixel {
		return fmt.Errorf("stride %d is shorter than a row of %d pixels", m.Stride, w)
	}
	if need := m.Stride*(h-1) + w*BytesPerPixel; len(m.Pix) < need {
		return fmt.Errorf("pixel buffer has %d bytes, %v needs %d", len(m.Pix), m.Rect, need)
	}
	return nil
}

// FromImage converts any image into a canonical one with bounds starting at
// the origin.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	dst := New(b.Dx(), b.Dy())
	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			si := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < b.Dx(); x++ {
				dst.Pix[di] = rgba.Pix[si+2]
				dst.Pix[di+1] = rgba.Pix[si+1]
				dst.Pix[di+2] = rgba.Pix[si]
				si += 4
				di += BytesPerPixel
			}
		}
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

var errBlitOutside = errors.New("source does not fit the destination")

// Blit copies src onto dst with the top-left corner of src at 'at'. The
// whole source must fit inside dst.
func Blit(dst *Image, src *Image, at image.Point) error {
	r := src.Rect.Sub(src.Rect.Min).Add(at)
	if !r.In(dst.Rect) {
		return fmt.Errorf("%w: %v into %v", errBlitOutside, r, dst.Rect)
	}
	rowLen := src.Rect.Dx() * BytesPerPixel
	for y := 0; y < src.Rect.Dy(); y++ {
		si := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		di := dst.PixOffset(at.X, at.Y+y)
		copy(dst.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
	return nil
}

// ToRGBA copies m into a standard library RGBA image, swapping the channel
// order back to R, G, B.
func (m *Image) ToRGBA() *image.RGBA {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := m.PixOffset(m.Rect.Min.X, m.Rect.Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			dst.Pix[di+0] = m.Pix[si+2]
			dst.Pix[di+1] = m.Pix[si+1]
			dst.Pix[di+2] = m.Pix[si+0]
			dst.Pix[di+3] = 0xff
			si += BytesPerPixel
			di += 4
		}
	}
	return dst
}
