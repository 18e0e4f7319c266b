// Package viewer is the receiving end of a session: it reads frames off
// the stream and hands decoded images to a display.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/decoder"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/wire"
)

// FrameSink shows decoded frames. SetFrame is called from the network
// goroutine.
type FrameSink interface {
	SetFrame(img *image.RGBA)
}

// Config describes what the sender puts on the wire.
type Config struct {
	Format            encoder.Format
	CompressionFormat compress.Format
	MaxFrameSize      int
}

// Stats counts what Run received.
type Stats struct {
	Frames  uint64
	Bytes   uint64
	Corrupt uint64
}

// Receiver decodes the frames of one stream.
type Receiver struct {
	cfg     Config
	decoder decoder.Decoder

	frames  atomic.Uint64
	bytes   atomic.Uint64
	corrupt atomic.Uint64
	lastLog atomic.Int64
}

func NewReceiver(cfg Config) (*Receiver, error) {
	dec, err := decoder.New(cfg.Format)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	return &Receiver{cfg: cfg, decoder: dec}, nil
}

// Decode turns one wire payload into an image.
func (r *Receiver) Decode(payload []byte) (*image.RGBA, error) {
	data, err := compress.Decompress(payload, r.cfg.CompressionFormat)
	if err != nil {
		return nil, err
	}
	return r.decoder.Decode(data)
}

// Run reads frames from src until it ends or ctx is cancelled, both of
// which return nil. A payload that cannot be decoded is skipped; a broken
// stream is returned as an error. If src is an io.Closer it is closed on
// cancellation.
func (r *Receiver) Run(ctx context.Context, src io.Reader, dst FrameSink) error {
	if c, ok := src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	reader := wire.NewReader(src, r.cfg.MaxFrameSize)
	for {
		payload, err := reader.ReadFrame()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		r.bytes.Add(uint64(len(payload)))

		img, err := r.Decode(payload)
		if err != nil {
			n := r.corrupt.Add(1)
			if shouldLog(&r.lastLog, time.Second) {
				logger.Errorf(ctx, "unable to decode a %s frame (%d so far): %v", humanize.Bytes(uint64(len(payload))), n, err)
			}
			continue
		}
		r.frames.Add(1)
		dst.SetFrame(img)
	}
}

func (r *Receiver) Stats() Stats {
	return Stats{
		Frames:  r.frames.Load(),
		Bytes:   r.bytes.Load(),
		Corrupt: r.corrupt.Load(),
	}
}

func shouldLog(last *atomic.Int64, period time.Duration) bool {
	now := time.Now().UnixNano()
	prev := last.Load()
	if prev != 0 && time.Duration(now-prev) < period {
		return false
	}
	return last.CompareAndSwap(prev, now)
}
