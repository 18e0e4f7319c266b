package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/thorpelawrence/scvr/internal/capture"
	"github.com/thorpelawrence/scvr/internal/config"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/netaddr"
	"github.com/thorpelawrence/scvr/internal/stereo"
	"github.com/thorpelawrence/scvr/internal/streamer"
	"github.com/thorpelawrence/scvr/internal/transport"
	"github.com/thorpelawrence/scvr/internal/wire"
)

func main() {
	cfg, err := config.ParseServerFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	l := logrus.Default().WithLevel(cfg.LogLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	ctx = belt.WithField(ctx, "session", uuid.NewString())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		logger.Error(ctx, err)
		belt.Flush(ctx)
		os.Exit(1)
	}
	belt.Flush(ctx)
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	// Everything that can be rejected up front is, before anyone connects.
	transformer, err := stereo.NewTransformer(cfg.StereoParams(), stereo.WithResampler(cfg.Resampler))
	if err != nil {
		return err
	}
	defer transformer.Close()
	logger.Debugf(ctx, "layout: %s", transformer.Layout())

	enc, err := encoder.New(cfg.Format, int(cfg.Quality))
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "encoding %s frames of %s raw with %s compression (level %s)",
		enc.Format(),
		humanize.Bytes(uint64(cfg.Width)*uint64(cfg.Height)*3),
		cfg.CompressionFormat, cfg.CompressionLevel.Resolve(),
	)

	ip := cfg.IP
	if ip == "" {
		addrs, err := netaddr.All(true)
		if err != nil {
			return err
		}
		for _, a := range addrs {
			logger.Debugf(ctx, "interface address: %s", a)
		}
		preferred, err := netaddr.Preferred(addrs)
		if err != nil {
			return err
		}
		ip = preferred.String()
	}

	ln, err := transport.Listen(ctx, cfg.Transport, cfg.ListenAddr(ip), transport.WithICEServers(cfg.ICEServers...))
	if err != nil {
		return err
	}
	fmt.Printf("Listening on %s (%s)\n", ln.Addr(), cfg.Transport)

	conn, err := ln.Accept(ctx)
	if cerr := ln.Close(); cerr != nil {
		logger.Debugf(ctx, "unable to close the listener: %v", cerr)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	fmt.Printf("Accepted %s\n", conn.RemoteAddr())

	sink := wire.NewSink(conn)
	var sender wire.FrameSender = sink
	if qc := cfg.QueueConfig(); qc.Enabled() {
		q, err := wire.NewQueuedSink(ctx, sink, qc)
		if err != nil {
			conn.Close()
			return err
		}
		defer func() {
			logger.Debugf(ctx, "dropped %d frames in total", q.Dropped())
		}()
		sender = q
	}
	defer sender.Close()

	capturer, err := capture.Open(ctx, cfg.CaptureOptions())
	if err != nil {
		return err
	}
	defer capturer.Close()

	s, err := streamer.New(streamer.Config{
		Capturer:          capturer,
		Transformer:       transformer,
		Encoder:           enc,
		CompressionFormat: cfg.CompressionFormat,
		CompressionLevel:  cfg.CompressionLevel,
		Sink:              sender,
		FrameInterval:     cfg.FrameInterval(),
	})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
