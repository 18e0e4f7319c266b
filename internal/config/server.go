package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"

	"github.com/thorpelawrence/scvr/internal/capture"
	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/imaging"
	"github.com/thorpelawrence/scvr/internal/stereo"
	"github.com/thorpelawrence/scvr/internal/transport"
	"github.com/thorpelawrence/scvr/internal/wire"
)

// ServerConfig holds the sender's runtime configuration.
type ServerConfig struct {
	IP   string
	Port uint16

	FPS     uint8
	Format  encoder.Format
	Quality uint8

	Width  uint32
	Height uint32

	CompressionFormat compress.Format
	CompressionLevel  compress.Level

	IPD         int16
	Scale       float32
	Algorithm   stereo.Algorithm
	Resampler   stereo.Resampler
	NoTimestamp bool

	Transport  transport.Kind
	ICEServers []string

	Capture      capture.Backend
	DisplayIndex int
	X11Display   string

	QueueSize    int
	DropPolicy   wire.Policy
	WriteTimeout time.Duration

	LogLevel logger.Level
}

// DefaultServerConfig returns the defaults of every sender flag.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		FPS:               30,
		Format:            encoder.FormatJPEG,
		Quality:           75,
		Width:             1920,
		Height:            1080,
		CompressionFormat: compress.Deflate,
		IPD:               60,
		Scale:             1.15,
		Algorithm:         stereo.Linear,
		Resampler:         stereo.ResamplerBild,
		Transport:         transport.KindTCP,
		Capture:           capture.BackendAuto,
		DropPolicy:        wire.DropOldest,
		LogLevel:          logger.LevelInfo,
	}
}

// ParseServerFlags parses the sender's command line (without the program
// name).
func ParseServerFlags(args []string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	flags := pflag.NewFlagSet("scvr-server", pflag.ContinueOnError)
	flags.SortFlags = false

	flags.StringVarP(&cfg.IP, "ip", "i", "", "IPv4/6 address to listen on (default: first non-loopback interface address)")
	flags.Uint16VarP(&cfg.Port, "port", "p", 0, "port to listen on (0 picks a free one)")
	flags.Uint8VarP(&cfg.FPS, "fps", "l", cfg.FPS, "frame rate limit")
	flags.VarP(&cfg.Format, "image-format", "f", "output image format (jpeg, bmp)")
	flags.Uint8VarP(&cfg.Quality, "quality", "q", cfg.Quality, "JPEG quality (0-100)")
	flags.Uint32VarP(&cfg.Width, "width", "w", cfg.Width, "output image width")
	flags.Uint32VarP(&cfg.Height, "height", "h", cfg.Height, "output image height")
	flags.Var(&cfg.CompressionFormat, "compression-format", "compression format (none, deflate, zlib, gzip, zstd)")
	flags.VarP(&cfg.CompressionLevel, "compression-level", "c", "compression level (fast, default, best or 0-9; default fast)")
	flags.Int16Var(&cfg.IPD, "ipd", cfg.IPD, "interpupillary distance in pixels")
	flags.Float32VarP(&cfg.Scale, "scale", "s", cfg.Scale, "eye scale relative to a third of the output")
	flags.VarP(&cfg.Algorithm, "resizing-algorithm", "a", "resizing algorithm (nearest, linear, cubic, gaussian, lanczos3)")
	flags.Var(&cfg.Resampler, "resizer", "resize implementation (bild, nfnt)")
	flags.BoolVar(&cfg.NoTimestamp, "no-timestamp", false, "disable the image timestamp")

	flags.Var(&cfg.Transport, "transport", "stream transport (tcp, websocket, webrtc)")
	flags.StringSliceVar(&cfg.ICEServers, "stun", nil, "STUN/TURN server URLs for the webrtc transport")

	flags.Var(&cfg.Capture, "capture", "capture backend (auto, coregraphics, x11, pattern)")
	flags.IntVar(&cfg.DisplayIndex, "display", 0, "display index to capture (0 = primary)")
	flags.StringVar(&cfg.X11Display, "x11-display", "", "X server to capture (default $DISPLAY)")

	flags.IntVar(&cfg.QueueSize, "queue-size", 0, "frames buffered between the pipeline and the network writer (0 writes directly)")
	flags.Var(&cfg.DropPolicy, "drop-policy", "what to do when the queue is full (block, drop-oldest)")
	flags.DurationVar(&cfg.WriteTimeout, "write-timeout", 0, "give up on a frame write after this long (0 waits forever; needs --queue-size)")

	flags.Var(&cfg.LogLevel, "log-level", "log level")

	if err := parse(flags, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks what the flag types cannot express.
func (cfg *ServerConfig) Validate() error {
	if cfg.FPS == 0 {
		return fmt.Errorf("--fps must be positive")
	}
	if cfg.Quality > 100 {
		return fmt.Errorf("--quality must be within 0-100, got %d", cfg.Quality)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("output size %dx%d must be non-empty", cfg.Width, cfg.Height)
	}
	if cfg.DisplayIndex < 0 {
		return fmt.Errorf("--display must not be negative")
	}
	if cfg.QueueSize < 0 {
		return fmt.Errorf("--queue-size must not be negative")
	}
	if cfg.WriteTimeout < 0 {
		return fmt.Errorf("--write-timeout must not be negative")
	}
	if cfg.WriteTimeout > 0 && cfg.QueueSize == 0 {
		return fmt.Errorf("--write-timeout needs --queue-size")
	}
	return nil
}

// FrameInterval is the pause between two captures.
func (cfg *ServerConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(cfg.FPS)
}

// ListenAddr joins ip and the configured port.
func (cfg *ServerConfig) ListenAddr(ip string) string {
	return net.JoinHostPort(ip, strconv.Itoa(int(cfg.Port)))
}

func (cfg *ServerConfig) StereoParams() stereo.Params {
	return stereo.Params{
		Target:        imaging.Dimensions{Width: cfg.Width, Height: cfg.Height},
		IPD:           int32(cfg.IPD),
		Scale:         cfg.Scale,
		Algorithm:     cfg.Algorithm,
		DrawTimestamp: !cfg.NoTimestamp,
	}
}

func (cfg *ServerConfig) QueueConfig() wire.QueueConfig {
	return wire.QueueConfig{
		Size:         cfg.QueueSize,
		Policy:       cfg.DropPolicy,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func (cfg *ServerConfig) CaptureOptions() capture.Options {
	return capture.Options{
		Backend:      cfg.Capture,
		DisplayIndex: cfg.DisplayIndex,
		X11Display:   cfg.X11Display,
		Pattern: capture.PatternOptions{
			Interval: cfg.FrameInterval(),
		},
	}
}
