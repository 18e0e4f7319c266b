package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/imaging"
	"github.com/thorpelawrence/scvr/internal/stereo"
	"github.com/thorpelawrence/scvr/internal/transport"
	"github.com/thorpelawrence/scvr/internal/wire"
)

// noEnvFile keeps a stray .env in the package directory out of the tests.
const noEnvFile = "--env-file="

func TestParseServerFlagsDefaults(t *testing.T) {
	cfg, err := ParseServerFlags([]string{noEnvFile})
	require.NoError(t, err)

	assert.Equal(t, "", cfg.IP)
	assert.Equal(t, uint16(0), cfg.Port)
	assert.Equal(t, uint8(30), cfg.FPS)
	assert.Equal(t, encoder.FormatJPEG, cfg.Format)
	assert.Equal(t, uint8(75), cfg.Quality)
	assert.Equal(t, uint32(1920), cfg.Width)
	assert.Equal(t, uint32(1080), cfg.Height)
	assert.Equal(t, compress.Deflate, cfg.CompressionFormat)
	assert.Equal(t, compress.Level{}, cfg.CompressionLevel)
	assert.Equal(t, int16(60), cfg.IPD)
	assert.Equal(t, float32(1.15), cfg.Scale)
	assert.Equal(t, stereo.Linear, cfg.Algorithm)
	assert.False(t, cfg.NoTimestamp)
	assert.Equal(t, transport.KindTCP, cfg.Transport)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Second/30, cfg.FrameInterval())
}

func TestParseServerFlagsShort(t *testing.T) {
	cfg, err := ParseServerFlags([]string{
		noEnvFile,
		"-i", "127.0.0.1", "-p", "9000", "-l", "10",
		"-f", "bmp", "-q", "90", "-w", "1280", "-h", "720",
		"--compression-format", "zstd", "-c", "best",
		"--ipd", "-20", "-s", "0.9", "-a", "lanczos3",
		"--no-timestamp",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr(cfg.IP))
	assert.Equal(t, uint8(10), cfg.FPS)
	assert.Equal(t, encoder.FormatBMP, cfg.Format)
	assert.Equal(t, uint8(90), cfg.Quality)
	assert.Equal(t, compress.Zstd, cfg.CompressionFormat)
	assert.Equal(t, compress.LevelBest, cfg.CompressionLevel)

	p := cfg.StereoParams()
	assert.Equal(t, imaging.Dimensions{Width: 1280, Height: 720}, p.Target)
	assert.Equal(t, int32(-20), p.IPD)
	assert.Equal(t, float32(0.9), p.Scale)
	assert.Equal(t, stereo.Lanczos3, p.Algorithm)
	assert.False(t, p.DrawTimestamp)
}

func TestParseServerFlagsIPv6Addr(t *testing.T) {
	cfg, err := ParseServerFlags([]string{noEnvFile, "--port", "8080"})
	require.NoError(t, err)
	assert.Equal(t, "[::1]:8080", cfg.ListenAddr("::1"))
}

func TestParseServerFlagsInvalid(t *testing.T) {
	for name, args := range map[string][]string{
		"zero fps":              {"--fps", "0"},
		"fps overflow":          {"--fps", "256"},
		"quality above 100":     {"--quality", "101"},
		"unknown format":        {"--image-format", "png"},
		"unknown compression":   {"--compression-format", "brotli"},
		"bad level":             {"--compression-level", "max"},
		"ipd overflow":          {"--ipd", "40000"},
		"unknown algorithm":     {"--resizing-algorithm", "bogus"},
		"zero width":            {"--width", "0"},
		"negative queue":        {"--queue-size", "-1"},
		"timeout without queue": {"--write-timeout", "1s"},
		"unknown flag":          {"--bogus"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseServerFlags(append([]string{noEnvFile}, args...))
			require.Error(t, err)
		})
	}
}

func TestParseServerFlagsQueue(t *testing.T) {
	cfg, err := ParseServerFlags([]string{noEnvFile, "--queue-size", "2", "--drop-policy", "block", "--write-timeout", "500ms"})
	require.NoError(t, err)
	assert.Equal(t, wire.QueueConfig{Size: 2, Policy: wire.Block, WriteTimeout: 500 * time.Millisecond}, cfg.QueueConfig())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCVR_FPS", "12")
	t.Setenv("SCVR_COMPRESSION_FORMAT", "gzip")
	t.Setenv("SCVR_QUALITY", "20")

	cfg, err := ParseServerFlags([]string{noEnvFile, "--quality", "50"})
	require.NoError(t, err)
	assert.Equal(t, uint8(12), cfg.FPS)
	assert.Equal(t, compress.Gzip, cfg.CompressionFormat)
	// the command line wins
	assert.Equal(t, uint8(50), cfg.Quality)
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("SCVR_FPS", "fast")
	_, err := ParseServerFlags([]string{noEnvFile})
	require.ErrorContains(t, err, "SCVR_FPS")
}

func TestEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scvr.env")
	require.NoError(t, os.WriteFile(path, []byte("SCVR_WIDTH=640\nSCVR_HEIGHT=480\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SCVR_WIDTH")
		os.Unsetenv("SCVR_HEIGHT")
	})

	cfg, err := ParseServerFlags([]string{"--env-file", path})
	require.NoError(t, err)
	assert.Equal(t, uint32(640), cfg.Width)
	assert.Equal(t, uint32(480), cfg.Height)

	_, err = ParseServerFlags([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "SCVR_NO_TIMESTAMP", EnvKey("no-timestamp"))
	assert.Equal(t, "SCVR_IP", EnvKey("ip"))
}

func TestParseViewerFlags(t *testing.T) {
	cfg, err := ParseViewerFlags([]string{noEnvFile, "192.168.1.2:9000", "--compression-format", "none", "-f", "bmp"})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.2:9000", cfg.Addr)
	assert.Equal(t, compress.None, cfg.CompressionFormat)
	assert.Equal(t, encoder.FormatBMP, cfg.Format)
	assert.Equal(t, wire.DefaultMaxFrameSize, cfg.MaxFrameSize)

	_, err = ParseViewerFlags([]string{noEnvFile})
	require.Error(t, err)
	_, err = ParseViewerFlags([]string{noEnvFile, "a:1", "b:2"})
	require.Error(t, err)
	_, err = ParseViewerFlags([]string{noEnvFile, "a:1", "--max-frame-size", "0"})
	require.Error(t, err)
}
