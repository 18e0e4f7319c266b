package text

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRendererDraw(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	r, err := NewRenderer(f, 50)
	require.NoError(t, err)
	defer r.Close()

	dst := image.NewRGBA(image.Rect(0, 0, 200, 80))
	r.Draw(dst, image.Pt(10, 10), "12:34")

	lit := 0
	for y := 0; y < 80; y++ {
		for x := 0; x < 200; x++ {
			if dst.RGBAAt(x, y).R > 0x80 {
				lit++
				assert.GreaterOrEqual(t, y, 10, "glyph pixel above the origin")
				assert.GreaterOrEqual(t, x, 10, "glyph pixel left of the origin")
			}
		}
	}
	assert.NotZero(t, lit)
}

func TestRendererClipsOutside(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	r, err := NewRenderer(f, 50)
	require.NoError(t, err)
	defer r.Close()

	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	r.Draw(dst, image.Pt(-500, -500), "00:00")
	for _, v := range dst.Pix {
		require.Zero(t, v)
	}
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(0, 0))
}
