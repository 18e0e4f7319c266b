// Package streamer runs the capture to network loop of a session.
package streamer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/thorpelawrence/scvr/internal/capture"
	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/stereo"
	"github.com/thorpelawrence/scvr/internal/wire"
)

// Config wires the stages of a session.
type Config struct {
	Capturer    capture.Capturer
	Transformer *stereo.Transformer
	Encoder     encoder.Encoder

	CompressionFormat compress.Format
	CompressionLevel  compress.Level

	Sink wire.FrameSender

	// FrameInterval is slept once per loop iteration.
	FrameInterval time.Duration

	// Now is the wall clock used for the timestamp overlay.
	Now func() time.Time
}

// Streamer owns one session: it polls the capturer and pushes every
// frame through the pipeline into the sink.
type Streamer struct {
	capturer capture.Capturer
	pipeline *Pipeline
	sink     wire.FrameSender
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) bool

	stats stats
}

func New(cfg Config) (*Streamer, error) {
	switch {
	case cfg.Capturer == nil:
		return nil, fmt.Errorf("no capturer")
	case cfg.Transformer == nil:
		return nil, fmt.Errorf("no transformer")
	case cfg.Encoder == nil:
		return nil, fmt.Errorf("no encoder")
	case cfg.Sink == nil:
		return nil, fmt.Errorf("no sink")
	case cfg.FrameInterval < 0:
		return nil, fmt.Errorf("negative frame interval %v", cfg.FrameInterval)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Streamer{
		capturer: cfg.Capturer,
		pipeline: NewPipeline(cfg.Transformer, cfg.Encoder, cfg.CompressionFormat, cfg.CompressionLevel),
		sink:     cfg.Sink,
		interval: cfg.FrameInterval,
		now:      now,
		sleep:    sleepCtx,
	}, nil
}

// Run streams until ctx is cancelled or a stage fails. Cancellation
// returns nil; a failure returns a *StageError.
func (s *Streamer) Run(ctx context.Context) error {
	logger.Debugf(ctx, "streaming %s frames every %v", s.capturer.Dimensions(), s.interval)
	s.stats.reset(time.Now())
	defer func() {
		logger.Infof(ctx, "sent %d frames (%s)", s.stats.totalFrames, humanize.Bytes(s.stats.totalBytes))
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.stats.maybeLog(ctx, time.Now())
		if !s.sleep(ctx, s.interval) {
			return nil
		}
	}
}

// step handles one poll of the capturer.
func (s *Streamer) step(ctx context.Context) error {
	frame, err := s.capturer.TryNextFrame()
	switch {
	case errors.Is(err, capture.ErrNotReady):
		s.stats.idle++
		return nil
	case err != nil:
		return stageErr(StageCapture, err)
	}

	payload, err := s.pipeline.Process(frame.RawFrame, s.now())
	if err != nil {
		return err
	}
	if err := s.sink.Send(ctx, payload); err != nil {
		return stageErr(StageSend, err)
	}
	var latency time.Duration
	if !frame.Timestamp.IsZero() {
		latency = time.Since(frame.Timestamp)
	}
	s.stats.sent(len(payload), latency)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
