package wire

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{0x01, 0x02, 0x03}))
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteFrame(&buf, nil))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteFrame(&buf, make([]byte, 0x01020304&0xffff)))
	assert.Equal(t, []byte{0x04, 0x03, 0x00, 0x00}, buf.Bytes()[:4])
}

func TestPutHeaderRejectsOversized(t *testing.T) {
	var hdr [HeaderSize]byte
	require.ErrorIs(t, PutHeader(hdr[:], -1), ErrFrameTooLarge)
	require.ErrorIs(t, PutHeader(hdr[:], 1<<31), ErrFrameTooLarge)
	require.NoError(t, PutHeader(hdr[:], 1<<31-1))
	assert.Equal(t, [HeaderSize]byte{0xff, 0xff, 0xff, 0x7f}, hdr)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }
func (w failingWriter) Close() error { return nil }

func TestWriteFrameConnectionLost(t *testing.T) {
	cause := errors.New("broken pipe")
	err := WriteFrame(failingWriter{err: cause}, []byte("x"))
	require.ErrorIs(t, err, ErrConnectionLost)
	require.ErrorIs(t, err, cause)

	err = NewSink(failingWriter{err: cause}).Send(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrConnectionLost)
}

func TestReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	frames := [][]byte{[]byte("first"), {}, bytes.Repeat([]byte{0xab}, 70000)}
	for _, f := range frames {
		require.NoError(t, WriteFrame(&buf, f))
	}

	r := NewReader(&buf, 0)
	for _, want := range frames {
		got, err := r.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		assert.True(t, bytes.Equal(want, got))
	}
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderErrors(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}), 0).ReadFrame()
	require.Error(t, err)

	_, err = NewReader(bytes.NewReader([]byte{0x00, 0x01, 0x00, 0x00}), 16).ReadFrame()
	require.ErrorIs(t, err, ErrFrameTooLarge)

	_, err = NewReader(bytes.NewReader([]byte{0x05, 0x00, 0x00, 0x00, 'a', 'b'}), 0).ReadFrame()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = NewReader(bytes.NewReader([]byte{0x05, 0x00}), 0).ReadFrame()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSinkHonoursContext(t *testing.T) {
	var buf closingBuffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewSink(&buf).Send(ctx, []byte("x")), context.Canceled)
	assert.Zero(t, buf.Len())
}

type closingBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closingBuffer) Close() error {
	b.closed = true
	return nil
}
