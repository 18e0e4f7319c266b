package stereo

import (
	"fmt"
	"strings"

	"github.com/thorpelawrence/scvr/internal/imaging"
)

// Algorithm selects the resampling kernel used to shrink the source into
// an eye view. It only affects pixel values, never the geometry.
type Algorithm int

const (
	NearestNeighbour Algorithm = iota
	Linear
	Cubic
	Gaussian
	Lanczos3
)

var algorithmNames = map[Algorithm]string{
	NearestNeighbour: "nearest",
	Linear:           "linear",
	Cubic:            "cubic",
	Gaussian:         "gaussian",
	Lanczos3:         "lanczos3",
}

// ParseAlgorithm accepts the canonical names plus a few common aliases.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "nearest", "nearestneighbour", "nearestneighbor", "nearest-neighbour", "nearest-neighbor":
		return NearestNeighbour, nil
	case "linear", "triangle", "bilinear":
		return Linear, nil
	case "cubic", "catmullrom", "catmull-rom", "bicubic":
		return Cubic, nil
	case "gaussian":
		return Gaussian, nil
	case "lanczos3", "lanczos":
		return Lanczos3, nil
	}
	return 0, fmt.Errorf("'%s' isn't a valid resizing algorithm", s)
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Set implements pflag.Value.
func (a *Algorithm) Set(s string) error {
	v, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Type implements pflag.Value.
func (a *Algorithm) Type() string { return "algorithm" }

// Params describes the side-by-side canvas.
type Params struct {
	// Target is the size of the produced canvas.
	Target imaging.Dimensions
	// IPD shifts both eyes towards the centre, in pixels.
	IPD int32
	// Scale multiplies a third of the target extents to get an eye size.
	Scale float32
	// Algorithm is the resampling kernel.
	Algorithm Algorithm
	// DrawTimestamp overlays the HH:MM liveness indicator.
	DrawTimestamp bool
}

func (p Params) String() string {
	return fmt.Sprintf("target=%s ipd=%d scale=%v algorithm=%s timestamp=%v",
		p.Target, p.IPD, p.Scale, p.Algorithm, p.DrawTimestamp)
}
