package stereo

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"
)

// ErrInvalidParams means the target, ipd and scale cannot be laid out.
var ErrInvalidParams = errors.New("invalid stereo parameters")

const (
	// TimestampHeight is the font height of the liveness indicator.
	TimestampHeight = 50
	// TimestampFormat renders the local wall-clock time as HH:MM.
	TimestampFormat = "15:04"

	timestampLift        = 100
	timestampMarginScale = 3
)

// Layout is the geometry of one side-by-side canvas.
type Layout struct {
	CanvasWidth  int
	CanvasHeight int

	EyeWidth  int
	EyeHeight int

	MarginTopBottom int
	MarginLeftRight int

	Left  image.Point
	Right image.Point
}

func (l Layout) String() string {
	return fmt.Sprintf("canvas %dx%d, eyes %dx%d at %v and %v",
		l.CanvasWidth, l.CanvasHeight, l.EyeWidth, l.EyeHeight, l.Left, l.Right)
}

// LeftRect returns the area covered by the left eye.
func (l Layout) LeftRect() image.Rectangle {
	return image.Rectangle{Min: l.Left, Max: l.Left.Add(image.Pt(l.EyeWidth, l.EyeHeight))}
}

// RightRect returns the area covered by the right eye.
func (l Layout) RightRect() image.Rectangle {
	return image.Rectangle{Min: l.Right, Max: l.Right.Add(image.Pt(l.EyeWidth, l.EyeHeight))}
}

// ComputeLayout validates p and positions both eyes on the canvas.
func ComputeLayout(p Params) (Layout, error) {
	if !p.Target.Valid() {
		return Layout{}, fmt.Errorf("%w: target %s must be non-empty", ErrInvalidParams, p.Target)
	}
	if p.Target.Width > math.MaxInt32 || p.Target.Height > math.MaxInt32 {
		return Layout{}, fmt.Errorf("%w: target %s is too large", ErrInvalidParams, p.Target)
	}
	scale := float64(p.Scale)
	if !(scale > 0) || math.IsInf(scale, 0) {
		return Layout{}, fmt.Errorf("%w: scale %v must be positive", ErrInvalidParams, p.Scale)
	}
	if _, ok := algorithmNames[p.Algorithm]; !ok {
		return Layout{}, fmt.Errorf("%w: unknown algorithm %s", ErrInvalidParams, p.Algorithm)
	}

	width, height := int(p.Target.Width), int(p.Target.Height)
	l := Layout{
		CanvasWidth:  width,
		CanvasHeight: height,
		EyeWidth:     int(math.Floor(float64(width/3) * scale)),
		EyeHeight:    int(math.Floor(float64(height/3) * scale)),
	}
	if l.EyeWidth <= 0 || l.EyeHeight <= 0 {
		return Layout{}, fmt.Errorf("%w: eye size %dx%d is empty", ErrInvalidParams, l.EyeWidth, l.EyeHeight)
	}
	if width < 2*l.EyeWidth {
		return Layout{}, fmt.Errorf("%w: two %dpx eyes do not fit into %dpx", ErrInvalidParams, l.EyeWidth, width)
	}
	if l.EyeHeight > height {
		return Layout{}, fmt.Errorf("%w: %dpx eye is taller than the %dpx canvas", ErrInvalidParams, l.EyeHeight, height)
	}

	l.MarginTopBottom = (height - l.EyeHeight) / 2
	l.MarginLeftRight = l.EyeWidth/3 - int(p.IPD)
	if l.MarginLeftRight < 0 {
		return Layout{}, fmt.Errorf("%w: ipd %d exceeds a third of the eye width (%d)",
			ErrInvalidParams, p.IPD, l.EyeWidth/3)
	}

	l.Left = image.Pt(l.MarginLeftRight, l.MarginTopBottom)
	l.Right = image.Pt(width-l.EyeWidth-l.MarginLeftRight, l.MarginTopBottom)
	if l.Right.X < 0 {
		return Layout{}, fmt.Errorf("%w: right eye starts at %d", ErrInvalidParams, l.Right.X)
	}
	if l.LeftRect().Overlaps(l.RightRect()) {
		return Layout{}, fmt.Errorf("%w: eyes overlap (ipd %d)", ErrInvalidParams, p.IPD)
	}
	return l, nil
}

// TimestampOrigin returns where the liveness indicator goes at 'now'.
func (l Layout) TimestampOrigin(now time.Time) image.Point {
	x := l.MarginLeftRight * timestampMarginScale
	return image.Pt(
		TimestampX(x, l.CanvasWidth, now.Second()),
		l.MarginTopBottom-timestampLift,
	)
}

// TimestampX swaps the indicator between x and its mirror every half
// minute: x while second > 30, imageWidth-x otherwise.
func TimestampX(x, imageWidth, second int) int {
	if second > 30 {
		return x
	}
	return imageWidth - x
}
