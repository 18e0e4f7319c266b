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
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"

	"github.com/thorpelawrence/scvr/internal/config"
	"github.com/thorpelawrence/scvr/internal/display"
	"github.com/thorpelawrence/scvr/internal/transport"
	"github.com/thorpelawrence/scvr/internal/viewer"
)

func main() {
	cfg, err := config.ParseViewerFlags(os.Args[1:])
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

func run(ctx context.Context, cfg *config.ViewerConfig) error {
	receiver, err := viewer.NewReceiver(viewer.Config{
		Format:            cfg.Format,
		CompressionFormat: cfg.CompressionFormat,
		MaxFrameSize:      cfg.MaxFrameSize,
	})
	if err != nil {
		return err
	}

	conn, err := transport.Dial(ctx, cfg.Transport, cfg.Addr, transport.WithICEServers(cfg.ICEServers...))
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Infof(ctx, "connected to %s over %s", conn.RemoteAddr(), cfg.Transport)

	disp := display.NewEbitenDisplay(display.Options{
		Title:      "scvr - " + cfg.Addr,
		Width:      cfg.WindowWidth,
		Height:     cfg.WindowHeight,
		Fullscreen: cfg.Fullscreen,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	streamErr := make(chan error, 1)
	observability.Go(ctx, func(ctx context.Context) {
		defer disp.Close()
		err := receiver.Run(ctx, conn, disp)
		st := receiver.Stats()
		logger.Infof(ctx, "stream ended after %d frames (%s, %d corrupt)", st.Frames, humanize.Bytes(st.Bytes), st.Corrupt)
		streamErr <- err
	})

	// ebiten has to own the main goroutine
	if err := disp.Run(); err != nil {
		return err
	}
	cancel()
	return <-streamErr
}
