package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// X11Capturer grabs the root window of an X screen with GetImage.
type X11Capturer struct {
	conn   *xgb.Conn
	screen xproto.ScreenInfo
	dims   imaging.Dimensions

	closeOnce sync.Once
}

// NewX11Capturer connects to display (empty means $DISPLAY) and selects
// screen screenIndex. Only 32 bits per pixel little-endian ZPixmaps are
// supported, which is what every 24/32-bit depth TrueColor server uses.
func NewX11Capturer(display string, screenIndex int) (*X11Capturer, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to the X server: %w", err)
	}
	setup := xproto.Setup(conn)
	if screenIndex < 0 || screenIndex >= len(setup.Roots) {
		conn.Close()
		return nil, fmt.Errorf("screen index %d out of range (have %d screens)", screenIndex, len(setup.Roots))
	}
	screen := setup.Roots[screenIndex]
	if err := checkPixmapFormat(setup, screen.RootDepth); err != nil {
		conn.Close()
		return nil, err
	}
	return &X11Capturer{
		conn:   conn,
		screen: screen,
		dims: imaging.Dimensions{
			Width:  uint32(screen.WidthInPixels),
			Height: uint32(screen.HeightInPixels),
		},
	}, nil
}

func checkPixmapFormat(setup *xproto.SetupInfo, depth byte) error {
	if setup.ImageByteOrder != xproto.ImageOrderLSBFirst {
		return fmt.Errorf("%w: big-endian X image byte order", ErrUnsupported)
	}
	for _, f := range setup.PixmapFormats {
		if f.Depth != depth {
			continue
		}
		if f.BitsPerPixel != 32 {
			return fmt.Errorf("%w: depth %d uses %d bits per pixel", ErrUnsupported, depth, f.BitsPerPixel)
		}
		return nil
	}
	return fmt.Errorf("%w: no pixmap format for depth %d", ErrUnsupported, depth)
}

func (c *X11Capturer) Dimensions() imaging.Dimensions {
	return c.dims
}

func (c *X11Capturer) TryNextFrame() (*Frame, error) {
	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.screen.Root),
		0, 0,
		c.screen.WidthInPixels, c.screen.HeightInPixels,
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("GetImage: %w", err)
	}
	if len(reply.Data) == 0 {
		return nil, ErrNotReady
	}
	return &Frame{
		RawFrame: imaging.RawFrame{
			Pix:        reply.Data,
			Dimensions: c.dims,
		},
		Timestamp: time.Now(),
	}, nil
}

func (c *X11Capturer) Close() error {
	c.closeOnce.Do(c.conn.Close)
	return nil
}
