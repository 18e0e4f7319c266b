package stereo

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

func defaultParams() Params {
	return Params{
		Target:    imaging.Dimensions{Width: 1920, Height: 1080},
		IPD:       60,
		Scale:     1.15,
		Algorithm: Linear,
	}
}

func TestComputeLayoutDefaults(t *testing.T) {
	l, err := ComputeLayout(defaultParams())
	require.NoError(t, err)

	assert.Equal(t, 735, l.EyeWidth)
	// float32(1.15) widened to float64 is just below 1.15: 360*1.15 floors to 413
	assert.Equal(t, 413, l.EyeHeight)
	assert.Equal(t, 333, l.MarginTopBottom)
	assert.Equal(t, 185, l.MarginLeftRight)
	assert.Equal(t, image.Pt(185, 333), l.Left)
	assert.Equal(t, image.Pt(1000, 333), l.Right)
	assert.False(t, l.LeftRect().Overlaps(l.RightRect()))
	assert.True(t, l.RightRect().In(image.Rect(0, 0, 1920, 1080)))
}

func TestComputeLayoutInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{"ipd larger than a third of the eye", func(p *Params) { p.IPD = 246 }},
		{"zero width", func(p *Params) { p.Target.Width = 0 }},
		{"zero height", func(p *Params) { p.Target.Height = 0 }},
		{"zero scale", func(p *Params) { p.Scale = 0 }},
		{"negative scale", func(p *Params) { p.Scale = -1 }},
		{"NaN scale", func(p *Params) { p.Scale = float32(math.NaN()) }},
		{"infinite scale", func(p *Params) { p.Scale = float32(math.Inf(1)) }},
		{"eyes wider than half the canvas", func(p *Params) { p.Scale = 1.6 }},
		{"tiny target", func(p *Params) { p.Target = imaging.Dimensions{Width: 2, Height: 2} }},
		{"negative ipd pushes the eyes into each other", func(p *Params) { p.IPD = -200 }},
		{"unknown algorithm", func(p *Params) { p.Algorithm = Algorithm(42) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams()
			tt.modify(&p)
			_, err := ComputeLayout(p)
			require.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestComputeLayoutIPDBoundary(t *testing.T) {
	p := defaultParams()
	p.IPD = 245
	l, err := ComputeLayout(p)
	require.NoError(t, err)
	assert.Zero(t, l.MarginLeftRight)
	assert.Equal(t, image.Pt(0, 333), l.Left)
	assert.Equal(t, image.Pt(1920-735, 333), l.Right)
}

func TestTimestampX(t *testing.T) {
	tests := []struct {
		second int
		want   int
	}{
		{45, 555},
		{31, 555},
		{59, 555},
		{30, 1365},
		{10, 1365},
		{0, 1365},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimestampX(555, 1920, tt.second), "second %d", tt.second)
	}
}

func TestTimestampOrigin(t *testing.T) {
	l, err := ComputeLayout(defaultParams())
	require.NoError(t, err)

	at := func(sec int) time.Time { return time.Date(2024, 1, 2, 13, 37, sec, 0, time.Local) }
	assert.Equal(t, image.Pt(555, 233), l.TimestampOrigin(at(45)))
	assert.Equal(t, image.Pt(1365, 233), l.TimestampOrigin(at(10)))
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]Algorithm{
		"nearest":    NearestNeighbour,
		" Linear ":   Linear,
		"triangle":   Linear,
		"CatmullRom": Cubic,
		"cubic":      Cubic,
		"gaussian":   Gaussian,
		"lanczos3":   Lanczos3,
	} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAlgorithm("bogus")
	require.Error(t, err)

	var a Algorithm
	require.NoError(t, a.Set("lanczos"))
	assert.Equal(t, "lanczos3", a.String())
}
