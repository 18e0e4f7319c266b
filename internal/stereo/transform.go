// Package stereo turns one canonical image into a side-by-side canvas with
// an eye view on each half.
package stereo

import (
	"fmt"
	"image"
	"time"

	"github.com/thorpelawrence/scvr/internal/imaging"
	"github.com/thorpelawrence/scvr/internal/text"
)

// Transformer applies a validated Params to every frame of a session.
type Transformer struct {
	params    Params
	layout    Layout
	resampler Resampler
	text      *text.Renderer
}

// Option customizes a Transformer.
type Option func(*Transformer)

// WithResampler selects the resize backend (bild by default).
func WithResampler(r Resampler) Option {
	return func(t *Transformer) { t.resampler = r }
}

// WithTextRenderer overrides the renderer of the timestamp overlay.
func WithTextRenderer(r *text.Renderer) Option {
	return func(t *Transformer) { t.text = r }
}

// NewTransformer validates p once so that per-frame work cannot fail on
// geometry.
func NewTransformer(p Params, opts ...Option) (*Transformer, error) {
	layout, err := ComputeLayout(p)
	if err != nil {
		return nil, err
	}
	t := &Transformer{
		params: p,
		layout: layout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if !t.resampler.Supports(p.Algorithm) {
		return nil, fmt.Errorf("%w: resampler %s has no %s kernel", ErrInvalidParams, t.resampler, p.Algorithm)
	}
	if p.DrawTimestamp && t.text == nil {
		f, err := text.Default()
		if err != nil {
			return nil, err
		}
		t.text, err = text.NewRenderer(f, TimestampHeight)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transformer) Params() Params { return t.params }

func (t *Transformer) Layout() Layout { return t.layout }

// Transform resizes src once and places it at both eye positions on a
// black canvas. 'now' drives the timestamp overlay.
func (t *Transformer) Transform(src image.Image, now time.Time) (*imaging.Image, error) {
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("empty source image %v", src.Bounds())
	}
	l := t.layout

	resized, err := t.resampler.Resize(src, l.EyeWidth, l.EyeHeight, t.params.Algorithm)
	if err != nil {
		return nil, err
	}
	eye := imaging.FromImage(resized)

	canvas := imaging.New(l.CanvasWidth, l.CanvasHeight)
	if err := imaging.Blit(canvas, eye, l.Left); err != nil {
		return nil, fmt.Errorf("left eye: %w", err)
	}
	if err := imaging.Blit(canvas, eye, l.Right); err != nil {
		return nil, fmt.Errorf("right eye: %w", err)
	}

	if t.params.DrawTimestamp {
		t.text.Draw(canvas, l.TimestampOrigin(now), now.Format(TimestampFormat))
	}
	return canvas, nil
}

// Close releases the timestamp font face.
func (t *Transformer) Close() error {
	if t.text == nil {
		return nil
	}
	return t.text.Close()
}

// VRTransform is the one-shot form of NewTransformer + Transform.
func VRTransform(src image.Image, p Params, now time.Time) (*imaging.Image, error) {
	t, err := NewTransformer(p)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return t.Transform(src, now)
}
