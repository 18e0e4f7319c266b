//go:build !darwin || !cgo

package capture

import (
	"fmt"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// CGCapturer is only available on macOS builds with cgo.
type CGCapturer struct{}

func NewCGCapturer(displayIndex int) (*CGCapturer, error) {
	return nil, fmt.Errorf("%w: coregraphics", ErrUnsupported)
}

func (c *CGCapturer) Dimensions() imaging.Dimensions { return imaging.Dimensions{} }

func (c *CGCapturer) TryNextFrame() (*Frame, error) {
	return nil, fmt.Errorf("%w: coregraphics", ErrUnsupported)
}

func (c *CGCapturer) Close() error { return nil }
