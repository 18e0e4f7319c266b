package config

import (
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"

	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/transport"
	"github.com/thorpelawrence/scvr/internal/wire"
)

// ViewerConfig holds configuration for the viewer binary.
type ViewerConfig struct {
	Addr string

	Transport  transport.Kind
	ICEServers []string

	Format            encoder.Format
	CompressionFormat compress.Format
	MaxFrameSize      int

	WindowWidth  int
	WindowHeight int
	Fullscreen   bool

	LogLevel logger.Level
}

// ParseViewerFlags parses the viewer's command line. The sender address
// is the only positional argument.
func ParseViewerFlags(args []string) (*ViewerConfig, error) {
	cfg := &ViewerConfig{
		Transport:         transport.KindTCP,
		Format:            encoder.FormatJPEG,
		CompressionFormat: compress.Deflate,
		LogLevel:          logger.LevelInfo,
	}
	flags := pflag.NewFlagSet("scvr-viewer", pflag.ContinueOnError)
	flags.SortFlags = false

	flags.StringVar(&cfg.Addr, "addr", "", "sender address as host:port (or the first argument)")
	flags.Var(&cfg.Transport, "transport", "stream transport (tcp, websocket, webrtc)")
	flags.StringSliceVar(&cfg.ICEServers, "stun", nil, "STUN/TURN server URLs for the webrtc transport")
	flags.VarP(&cfg.Format, "image-format", "f", "image format the sender uses (jpeg, bmp)")
	flags.Var(&cfg.CompressionFormat, "compression-format", "compression format the sender uses (none, deflate, zlib, gzip, zstd)")
	flags.IntVar(&cfg.MaxFrameSize, "max-frame-size", wire.DefaultMaxFrameSize, "largest frame accepted, in bytes")
	flags.IntVar(&cfg.WindowWidth, "window-width", 1280, "initial window width")
	flags.IntVar(&cfg.WindowHeight, "window-height", 720, "initial window height")
	flags.BoolVar(&cfg.Fullscreen, "fullscreen", false, "start in fullscreen")
	flags.Var(&cfg.LogLevel, "log-level", "log level")

	if err := parse(flags, args); err != nil {
		return nil, err
	}
	switch {
	case flags.NArg() > 1:
		return nil, fmt.Errorf("expected at most one address, got %d arguments", flags.NArg())
	case flags.NArg() == 1 && cfg.Addr == "":
		cfg.Addr = flags.Arg(0)
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("the sender address is required")
	}
	if cfg.MaxFrameSize <= 0 {
		return nil, fmt.Errorf("--max-frame-size must be positive")
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		return nil, fmt.Errorf("window size %dx%d must be non-empty", cfg.WindowWidth, cfg.WindowHeight)
	}
	return cfg, nil
}
