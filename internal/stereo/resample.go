package stereo

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/nfnt/resize"
)

// Resampler selects the library that performs the resize.
type Resampler int

const (
	// ResamplerBild supports every Algorithm.
	ResamplerBild Resampler = iota
	// ResamplerNfnt has no Gaussian kernel.
	ResamplerNfnt
)

func ParseResampler(s string) (Resampler, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "bild":
		return ResamplerBild, nil
	case "nfnt":
		return ResamplerNfnt, nil
	}
	return 0, fmt.Errorf("'%s' isn't a valid resampler (bild, nfnt)", s)
}

func (r Resampler) String() string {
	switch r {
	case ResamplerBild:
		return "bild"
	case ResamplerNfnt:
		return "nfnt"
	}
	return fmt.Sprintf("Resampler(%d)", int(r))
}

// Set implements pflag.Value.
func (r *Resampler) Set(s string) error {
	v, err := ParseResampler(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Type implements pflag.Value.
func (r *Resampler) Type() string { return "resampler" }

func (r Resampler) bildFilter(a Algorithm) (transform.ResampleFilter, bool) {
	switch a {
	case NearestNeighbour:
		return transform.NearestNeighbor, true
	case Linear:
		return transform.Linear, true
	case Cubic:
		return transform.CatmullRom, true
	case Gaussian:
		return transform.Gaussian, true
	case Lanczos3:
		return transform.Lanczos, true
	}
	return transform.ResampleFilter{}, false
}

func (r Resampler) nfntInterpolation(a Algorithm) (resize.InterpolationFunction, bool) {
	switch a {
	case NearestNeighbour:
		return resize.NearestNeighbor, true
	case Linear:
		return resize.Bilinear, true
	case Cubic:
		return resize.Bicubic, true
	case Lanczos3:
		return resize.Lanczos3, true
	}
	return 0, false
}

// Supports reports whether the backend implements the kernel.
func (r Resampler) Supports(a Algorithm) bool {
	switch r {
	case ResamplerBild:
		_, ok := r.bildFilter(a)
		return ok
	case ResamplerNfnt:
		_, ok := r.nfntInterpolation(a)
		return ok
	}
	return false
}

// Resize scales src to exactly width x height.
func (r Resampler) Resize(src image.Image, width, height int, a Algorithm) (image.Image, error) {
	switch r {
	case ResamplerBild:
		filter, ok := r.bildFilter(a)
		if !ok {
			break
		}
		return transform.Resize(src, width, height, filter), nil
	case ResamplerNfnt:
		interp, ok := r.nfntInterpolation(a)
		if !ok {
			break
		}
		return resize.Resize(uint(width), uint(height), src, interp), nil
	default:
		return nil, fmt.Errorf("unknown resampler %s", r)
	}
	return nil, fmt.Errorf("resampler %s does not implement %s", r, a)
}
