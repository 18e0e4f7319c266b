package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

func TestResolveBackend(t *testing.T) {
	b, err := ResolveBackend(BackendAuto, "darwin")
	require.NoError(t, err)
	assert.Equal(t, BackendCoreGraphics, b)

	b, err = ResolveBackend(BackendAuto, "linux")
	require.NoError(t, err)
	assert.Equal(t, BackendX11, b)

	_, err = ResolveBackend(BackendAuto, "windows")
	require.ErrorIs(t, err, ErrUnsupported)

	b, err = ResolveBackend(BackendPattern, "windows")
	require.NoError(t, err)
	assert.Equal(t, BackendPattern, b)
}

func TestParseBackend(t *testing.T) {
	for _, b := range []Backend{BackendAuto, BackendCoreGraphics, BackendX11, BackendPattern} {
		got, err := ParseBackend(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	var b Backend
	require.NoError(t, b.Set(" X11 "))
	assert.Equal(t, BackendX11, b)
	require.Error(t, b.Set("dxgi"))
}

func TestPatternCapturer(t *testing.T) {
	c, err := NewPatternCapturer(PatternOptions{Width: 64, Height: 16, RowPadding: 12})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, imaging.Dimensions{Width: 64, Height: 16}, c.Dimensions())

	f, err := c.TryNextFrame()
	require.NoError(t, err)
	assert.Equal(t, 64*4+12, f.Stride())
	assert.Len(t, f.Pix, (64*4+12)*16)

	img, err := imaging.Convert(f.RawFrame)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	next, err := c.TryNextFrame()
	require.NoError(t, err)
	assert.NotEqual(t, f.Pix, next.Pix, "bars move between frames")
	assert.Equal(t, 2, c.Frames())
}

func TestPatternCapturerPacing(t *testing.T) {
	c, err := NewPatternCapturer(PatternOptions{Width: 8, Height: 8, Interval: time.Second})
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	_, err = c.TryNextFrame()
	require.NoError(t, err)

	now = now.Add(500 * time.Millisecond)
	_, err = c.TryNextFrame()
	require.ErrorIs(t, err, ErrNotReady)

	now = now.Add(500 * time.Millisecond)
	f, err := c.TryNextFrame()
	require.NoError(t, err)
	assert.Equal(t, now, f.Timestamp)
}

func TestPatternCapturerLimit(t *testing.T) {
	c, err := NewPatternCapturer(PatternOptions{Width: 4, Height: 4, Limit: 2})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := c.TryNextFrame()
		require.NoError(t, err)
	}
	_, err = c.TryNextFrame()
	require.ErrorIs(t, err, ErrPatternExhausted)
}

func TestOpenPattern(t *testing.T) {
	c, err := Open(context.Background(), Options{
		Backend: BackendPattern,
		Pattern: PatternOptions{Width: 32, Height: 18},
	})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, imaging.Dimensions{Width: 32, Height: 18}, c.Dimensions())
}
