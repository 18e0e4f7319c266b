// Package compress wraps encoded frames in a general purpose compression
// format. Every call builds its own codec state; nothing is shared between
// frames.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrCompress wraps every codec failure.
var ErrCompress = errors.New("compression failed")

const (
	minCustomLevel = 0
	maxCustomLevel = 9
)

// flateLevel maps l onto the deflate family's level numbers.
func flateLevel(l Level) (int, error) {
	switch l = l.Resolve(); l.kind {
	case levelFast:
		return flate.BestSpeed, nil
	case levelDefault:
		return flate.DefaultCompression, nil
	case levelBest:
		return flate.BestCompression, nil
	}
	if l.n < minCustomLevel || l.n > maxCustomLevel {
		return 0, fmt.Errorf("level %d is out of range [%d, %d]", l.n, minCustomLevel, maxCustomLevel)
	}
	return l.n, nil
}

func zstdLevel(l Level) (zstd.EncoderLevel, error) {
	switch l = l.Resolve(); l.kind {
	case levelFast:
		return zstd.SpeedFastest, nil
	case levelDefault:
		return zstd.SpeedDefault, nil
	case levelBest:
		return zstd.SpeedBestCompression, nil
	}
	if l.n < minCustomLevel || l.n > maxCustomLevel {
		return 0, fmt.Errorf("level %d is out of range [%d, %d]", l.n, minCustomLevel, maxCustomLevel)
	}
	return zstd.EncoderLevelFromZstd(l.n), nil
}

// Compress returns data wrapped in format. None returns data unchanged.
func Compress(data []byte, level Level, format Format) ([]byte, error) {
	if format == None {
		return data, nil
	}
	out, err := compress(data, level, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompress, format, err)
	}
	return out, nil
}

func compress(data []byte, level Level, format Format) ([]byte, error) {
	if format == Zstd {
		lvl, err := zstdLevel(level)
		if err != nil {
			return nil, err
		}
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(lvl),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	}

	lvl, err := flateLevel(level)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)

	var w io.WriteCloser
	switch format {
	case Deflate:
		w, err = flate.NewWriter(&buf, lvl)
	case Zlib:
		w, err = zlib.NewWriterLevel(&buf, lvl)
	case Gzip:
		w, err = gzip.NewWriterLevel(&buf, lvl)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress is the inverse of Compress.
func Decompress(data []byte, format Format) ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	src := bytes.NewReader(data)
	switch format {
	case None:
		return data, nil
	case Zstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCompress, err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCompress, err)
		}
		return out, nil
	case Deflate:
		r = flate.NewReader(src)
	case Zlib:
		r, err = zlib.NewReader(src)
	case Gzip:
		r, err = gzip.NewReader(src)
	default:
		return nil, fmt.Errorf("%w: unknown format %s", ErrCompress, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompress, format, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompress, format, err)
	}
	return out, nil
}
