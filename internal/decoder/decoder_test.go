package decoder

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/imaging"
)

func TestBMPRoundTrip(t *testing.T) {
	src := imaging.New(5, 4)
	src.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	src.Set(4, 3, color.RGBA{G: 0x10, B: 0xee, A: 0xff})

	data, err := encoder.NewBMPEncoder().Encode(src)
	require.NoError(t, err)

	dec, err := New(encoder.FormatBMP)
	require.NoError(t, err)
	img, err := dec.Decode(data)
	require.NoError(t, err)

	require.Equal(t, src.Bounds(), img.Bounds())
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, src.At(x, y), img.At(x, y), "(%d,%d)", x, y)
		}
	}
}

func TestJPEGDecode(t *testing.T) {
	src := imaging.New(16, 16)
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}
	data, err := encoder.NewJPEGEncoder(90).Encode(src)
	require.NoError(t, err)

	dec, err := New(encoder.FormatJPEG)
	require.NoError(t, err)
	img, err := dec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), img.Bounds())

	c := img.RGBAAt(8, 8)
	assert.InDelta(t, 0x80, int(c.R), 4)
	assert.InDelta(t, 0x80, int(c.G), 4)
	assert.InDelta(t, 0x80, int(c.B), 4)
}

func TestDecodeGarbage(t *testing.T) {
	for _, f := range []encoder.Format{encoder.FormatJPEG, encoder.FormatBMP} {
		dec, err := New(f)
		require.NoError(t, err)
		_, err = dec.Decode([]byte("not an image"))
		require.ErrorIs(t, err, ErrDecode)
	}
}
