package viewer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorpelawrence/scvr/internal/compress"
	"github.com/thorpelawrence/scvr/internal/encoder"
	"github.com/thorpelawrence/scvr/internal/imaging"
	"github.com/thorpelawrence/scvr/internal/wire"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []*image.RGBA
}

func (f *frameRecorder) SetFrame(img *image.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, img)
}

func payload(t *testing.T, c color.RGBA, comp compress.Format) []byte {
	t.Helper()
	img := imaging.New(6, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, c)
		}
	}
	data, err := encoder.NewBMPEncoder().Encode(img)
	require.NoError(t, err)
	out, err := compress.Compress(data, compress.LevelDefault, comp)
	require.NoError(t, err)
	return out
}

func TestRunDecodesEveryFrame(t *testing.T) {
	cfg := Config{Format: encoder.FormatBMP, CompressionFormat: compress.Gzip}
	r, err := NewReceiver(cfg)
	require.NoError(t, err)

	var stream bytes.Buffer
	colors := []color.RGBA{{R: 255, A: 255}, {G: 255, A: 255}}
	for _, c := range colors {
		require.NoError(t, wire.WriteFrame(&stream, payload(t, c, cfg.CompressionFormat)))
	}
	// a well framed payload that is not gzip
	require.NoError(t, wire.WriteFrame(&stream, []byte("garbage")))

	rec := &frameRecorder{}
	require.NoError(t, r.Run(context.Background(), &stream, rec))

	require.Len(t, rec.frames, 2)
	for i, c := range colors {
		assert.Equal(t, image.Rect(0, 0, 6, 4), rec.frames[i].Bounds())
		assert.Equal(t, c, rec.frames[i].RGBAAt(3, 2))
	}
	st := r.Stats()
	assert.Equal(t, uint64(2), st.Frames)
	assert.Equal(t, uint64(1), st.Corrupt)
}

func TestRunTruncatedStream(t *testing.T) {
	r, err := NewReceiver(Config{Format: encoder.FormatBMP})
	require.NoError(t, err)

	var stream bytes.Buffer
	require.NoError(t, wire.WriteFrame(&stream, payload(t, color.RGBA{A: 255}, compress.None)))
	stream.Truncate(stream.Len() - 3)

	err = r.Run(context.Background(), &stream, &frameRecorder{})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRunOversizedFrame(t *testing.T) {
	r, err := NewReceiver(Config{Format: encoder.FormatBMP, MaxFrameSize: 16})
	require.NoError(t, err)

	var stream bytes.Buffer
	require.NoError(t, wire.WriteFrame(&stream, make([]byte, 17)))
	err = r.Run(context.Background(), &stream, &frameRecorder{})
	require.ErrorIs(t, err, wire.ErrFrameTooLarge)
}

func TestRunCancel(t *testing.T) {
	r, err := NewReceiver(Config{Format: encoder.FormatJPEG})
	require.NoError(t, err)

	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	require.NoError(t, r.Run(ctx, pr, &frameRecorder{}))
}
