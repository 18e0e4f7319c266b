//go:build darwin && cgo

package capture

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <dlfcn.h>
#include <stdlib.h>

typedef struct {
    void*  data;
    size_t size;
    int    width;
    int    height;
    size_t bytesPerRow;
} FrameData;

// CGWindowListCreateImage is unavailable in the macOS 15 SDK headers but still
// present in the CoreGraphics dylib. Load it dynamically.
typedef CGImageRef (*CGWindowListCreateImageFunc)(
    CGRect screenBounds,
    uint32_t listOption,
    uint32_t windowID,
    uint32_t imageOption
);

static CGWindowListCreateImageFunc getCGWindowListCreateImage(void) {
    static CGWindowListCreateImageFunc fn = NULL;
    if (!fn) {
        fn = (CGWindowListCreateImageFunc)dlsym(RTLD_DEFAULT, "CGWindowListCreateImage");
    }
    return fn;
}

// captureDisplay renders the display into a 32-bit little-endian buffer,
// i.e. B, G, R, A in memory.
FrameData captureDisplay(CGDirectDisplayID displayID) {
    FrameData result = {0};

    CGWindowListCreateImageFunc fn = getCGWindowListCreateImage();
    if (!fn) {
        return result;
    }

    CGRect bounds = CGDisplayBounds(displayID);
    // kCGWindowListOptionOnScreenOnly = 1, kCGNullWindowID = 0, kCGWindowImageNominalResolution = 1 << 4
    CGImageRef image = fn(bounds, 1, 0, 1 << 4);
    if (!image) {
        return result;
    }

    result.width  = (int)CGImageGetWidth(image);
    result.height = (int)CGImageGetHeight(image);

    result.bytesPerRow = result.width * 4;
    result.size        = result.bytesPerRow * result.height;
    result.data        = malloc(result.size);
    if (!result.data) {
        CGImageRelease(image);
        result.size = 0;
        return result;
    }

    CGColorSpaceRef cs = CGColorSpaceCreateDeviceRGB();
    CGContextRef ctx = CGBitmapContextCreate(
        result.data,
        result.width,
        result.height,
        8,
        result.bytesPerRow,
        cs,
        kCGImageAlphaPremultipliedFirst | kCGBitmapByteOrder32Little
    );
    CGContextDrawImage(ctx, CGRectMake(0, 0, result.width, result.height), image);
    CGContextRelease(ctx);
    CGColorSpaceRelease(cs);
    CGImageRelease(image);

    return result;
}

void freeFrameData(void* data) {
    free(data);
}
*/
import "C"

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/thorpelawrence/scvr/internal/imaging"
	"github.com/thorpelawrence/scvr/internal/permissions"
)

// CGCapturer implements Capturer using CoreGraphics.
type CGCapturer struct {
	displayID C.CGDirectDisplayID
	dims      imaging.Dimensions
}

// NewCGCapturer creates a screen capturer for the given display. It fails
// when the process lacks the Screen Recording permission, after asking
// macOS to prompt for it.
func NewCGCapturer(displayIndex int) (*CGCapturer, error) {
	if !permissions.HasScreenRecording() {
		permissions.RequestScreenRecording()
		return nil, fmt.Errorf("grant the Screen Recording permission in System Settings and restart")
	}

	var displayID C.CGDirectDisplayID
	if displayIndex == 0 {
		displayID = C.CGMainDisplayID()
	} else {
		var displays [16]C.CGDirectDisplayID
		var count C.uint32_t
		C.CGGetActiveDisplayList(16, &displays[0], &count)
		if displayIndex < 0 || displayIndex >= int(count) {
			return nil, fmt.Errorf("display index %d out of range (have %d displays)", displayIndex, count)
		}
		displayID = displays[displayIndex]
	}

	return &CGCapturer{
		displayID: displayID,
		dims: imaging.Dimensions{
			Width:  uint32(C.CGDisplayPixelsWide(displayID)),
			Height: uint32(C.CGDisplayPixelsHigh(displayID)),
		},
	}, nil
}

func (c *CGCapturer) Dimensions() imaging.Dimensions {
	return c.dims
}

// TryNextFrame grabs the display now. A failed grab (e.g. while the
// display is reconfiguring) is reported as ErrNotReady.
func (c *CGCapturer) TryNextFrame() (*Frame, error) {
	fd := C.captureDisplay(c.displayID)
	if fd.data == nil {
		return nil, ErrNotReady
	}
	defer C.freeFrameData(fd.data)

	byteLen := int(fd.size)
	pix := make([]byte, byteLen)
	copy(pix, unsafe.Slice((*byte)(fd.data), byteLen))

	c.dims = imaging.Dimensions{Width: uint32(fd.width), Height: uint32(fd.height)}
	return &Frame{
		RawFrame: imaging.RawFrame{
			Pix:        pix,
			Dimensions: c.dims,
		},
		Timestamp: time.Now(),
	}, nil
}

func (c *CGCapturer) Close() error {
	return nil
}
