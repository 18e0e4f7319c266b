package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// PatternOptions configures the synthetic capturer.
type PatternOptions struct {
	Width  uint32
	Height uint32

	// Interval paces frames: TryNextFrame reports ErrNotReady until it
	// has elapsed since the previous frame. Zero never paces.
	Interval time.Duration

	// RowPadding adds bytes at the end of every row, like capture
	// backends with aligned strides do.
	RowPadding int

	// Limit ends the stream with ErrPatternExhausted after that many
	// frames. Zero is unlimited.
	Limit int
}

// ErrPatternExhausted is returned once PatternOptions.Limit frames were
// produced.
var ErrPatternExhausted = errors.New("pattern capture exhausted")

const (
	defaultPatternWidth  = 1280
	defaultPatternHeight = 720
	patternBars          = 8
)

// PatternCapturer produces moving color bars. It works everywhere and
// needs no display.
type PatternCapturer struct {
	opts  PatternOptions
	dims  imaging.Dimensions
	count int
	last  time.Time
	now   func() time.Time
}

func NewPatternCapturer(opts PatternOptions) (*PatternCapturer, error) {
	if opts.Width == 0 {
		opts.Width = defaultPatternWidth
	}
	if opts.Height == 0 {
		opts.Height = defaultPatternHeight
	}
	if opts.RowPadding < 0 {
		return nil, fmt.Errorf("negative row padding %d", opts.RowPadding)
	}
	return &PatternCapturer{
		opts: opts,
		dims: imaging.Dimensions{Width: opts.Width, Height: opts.Height},
		now:  time.Now,
	}, nil
}

func (c *PatternCapturer) Dimensions() imaging.Dimensions {
	return c.dims
}

// Frames returns how many frames were produced so far.
func (c *PatternCapturer) Frames() int {
	return c.count
}

func (c *PatternCapturer) TryNextFrame() (*Frame, error) {
	if c.opts.Limit > 0 && c.count >= c.opts.Limit {
		return nil, ErrPatternExhausted
	}
	now := c.now()
	if c.opts.Interval > 0 && !c.last.IsZero() && now.Sub(c.last) < c.opts.Interval {
		return nil, ErrNotReady
	}
	c.last = now

	w, h := int(c.dims.Width), int(c.dims.Height)
	stride := w*4 + c.opts.RowPadding
	pix := make([]byte, stride*h)
	shift := c.count * 4
	barWidth := max(w/patternBars, 1)
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			bar := ((x + shift) / barWidth) % patternBars
			i := x * 4
			row[i+0] = patternLevel(bar&1 != 0)
			row[i+1] = patternLevel(bar&2 != 0)
			row[i+2] = patternLevel(bar&4 != 0)
			row[i+3] = 0xff
		}
	}
	c.count++
	return &Frame{
		RawFrame: imaging.RawFrame{
			Pix:        pix,
			Dimensions: c.dims,
		},
		Timestamp: now,
	}, nil
}

func patternLevel(on bool) byte {
	if on {
		return 0xc0
	}
	return 0x10
}

func (c *PatternCapturer) Close() error {
	return nil
}
