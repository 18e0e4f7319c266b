// Package capture grabs raw frames of a display.
package capture

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

var (
	// ErrNotReady means no new frame is available yet; retry later.
	ErrNotReady = errors.New("frame not ready")
	// ErrUnsupported means the backend does not exist on this platform.
	ErrUnsupported = errors.New("capture backend not supported on this platform")
)

// Frame is one captured display image in 4-byte B, G, R, X order.
type Frame struct {
	imaging.RawFrame
	Timestamp time.Time
}

// Capturer is a polling display capturer. TryNextFrame never blocks for
// long: it returns ErrNotReady when nothing new is available, and any
// other error is fatal for the session.
type Capturer interface {
	TryNextFrame() (*Frame, error)
	Dimensions() imaging.Dimensions
	Close() error
}

// Backend names a capture implementation.
type Backend int

const (
	BackendAuto Backend = iota
	BackendCoreGraphics
	BackendX11
	BackendPattern
)

var backendNames = map[Backend]string{
	BackendAuto:         "auto",
	BackendCoreGraphics: "coregraphics",
	BackendX11:          "x11",
	BackendPattern:      "pattern",
}

func ParseBackend(s string) (Backend, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for b, name := range backendNames {
		if s == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("'%s' isn't a valid capture backend (auto, coregraphics, x11, pattern)", s)
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// Set implements pflag.Value.
func (b *Backend) Set(s string) error {
	v, err := ParseBackend(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Type implements pflag.Value.
func (b *Backend) Type() string { return "backend" }

// ResolveBackend maps BackendAuto onto the native backend of goos.
func ResolveBackend(b Backend, goos string) (Backend, error) {
	if b != BackendAuto {
		return b, nil
	}
	switch goos {
	case "darwin":
		return BackendCoreGraphics, nil
	case "windows", "android", "ios", "js", "wasip1":
		return 0, fmt.Errorf("%w: %s has no native backend, use --capture=pattern", ErrUnsupported, goos)
	}
	return BackendX11, nil
}

// Options selects and configures a backend.
type Options struct {
	Backend Backend

	// DisplayIndex selects the display; 0 is the primary one.
	DisplayIndex int

	// X11Display is the X server to connect to; empty means $DISPLAY.
	X11Display string

	Pattern PatternOptions
}

// Open starts the selected backend.
func Open(ctx context.Context, opts Options) (Capturer, error) {
	backend, err := ResolveBackend(opts.Backend, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "opening the %s capture backend (display %d)", backend, opts.DisplayIndex)

	var c Capturer
	switch backend {
	case BackendCoreGraphics:
		c, err = NewCGCapturer(opts.DisplayIndex)
	case BackendX11:
		c, err = NewX11Capturer(opts.X11Display, opts.DisplayIndex)
	case BackendPattern:
		c, err = NewPatternCapturer(opts.Pattern)
	default:
		err = fmt.Errorf("unknown capture backend %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s capture: %w", backend, err)
	}
	logger.Infof(ctx, "capturing %s from the %s backend", c.Dimensions(), backend)
	return c, nil
}
