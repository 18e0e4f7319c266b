package wire

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedConn blocks every Write until release is closed.
type gatedConn struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedConn() *gatedConn {
	return &gatedConn{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *gatedConn) Write(p []byte) (int, error) {
	c.once.Do(func() { close(c.entered) })
	<-c.release
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *gatedConn) Close() error { return nil }

func (c *gatedConn) frames(t *testing.T) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	r := NewReader(bytes.NewReader(c.buf.Bytes()), 0)
	for {
		f, err := r.ReadFrame()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, string(f))
	}
}

func TestQueuedSinkDropOldest(t *testing.T) {
	ctx := context.Background()
	conn := newGatedConn()
	q, err := NewQueuedSink(ctx, NewSink(conn), QueueConfig{Size: 2, Policy: DropOldest})
	require.NoError(t, err)

	require.NoError(t, q.Send(ctx, []byte("a")))
	<-conn.entered

	for _, f := range []string{"b", "c", "d"} {
		require.NoError(t, q.Send(ctx, []byte(f)))
	}
	assert.Equal(t, uint64(1), q.Dropped())

	close(conn.release)
	require.NoError(t, q.Close())
	assert.Equal(t, []string{"a", "c", "d"}, conn.frames(t))

	require.ErrorIs(t, q.Send(ctx, []byte("e")), ErrSinkClosed)
}

func TestQueuedSinkBlock(t *testing.T) {
	ctx := context.Background()
	conn := newGatedConn()
	q, err := NewQueuedSink(ctx, NewSink(conn), QueueConfig{Size: 1, Policy: Block})
	require.NoError(t, err)

	require.NoError(t, q.Send(ctx, []byte("a")))
	<-conn.entered
	require.NoError(t, q.Send(ctx, []byte("b")))

	sendCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Send(sendCtx, []byte("c")), context.DeadlineExceeded)

	close(conn.release)
	require.NoError(t, q.Close())
	assert.Equal(t, []string{"a", "b"}, conn.frames(t))
	assert.Zero(t, q.Dropped())
}

func TestQueuedSinkWriteTimeout(t *testing.T) {
	ctx := context.Background()
	local, remote := net.Pipe()
	defer remote.Close()

	q, err := NewQueuedSink(ctx, NewSink(local), QueueConfig{
		Size:         4,
		Policy:       Block,
		WriteTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, q.Send(ctx, []byte("nobody reads this")))
	require.Eventually(t, func() bool { return q.Err() != nil }, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, q.Err(), ErrConnectionLost)
	require.ErrorIs(t, q.Send(ctx, []byte("x")), ErrConnectionLost)
	require.NoError(t, q.Close())
}

func TestQueuedSinkContextCancelUnblocksWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	local, remote := net.Pipe()
	defer remote.Close()

	q, err := NewQueuedSink(ctx, NewSink(local), QueueConfig{Size: 1})
	require.NoError(t, err)
	require.NoError(t, q.Send(ctx, []byte("stalled")))

	cancel()
	closed := make(chan error, 1)
	go func() { closed <- q.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the context was cancelled")
	}
}

func TestQueuedSinkCloseStalledPeer(t *testing.T) {
	ctx := context.Background()
	local, remote := net.Pipe()
	defer remote.Close()

	q, err := NewQueuedSink(ctx, NewSink(local), QueueConfig{
		Size:         2,
		Policy:       Block,
		FlushTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, q.Send(ctx, []byte("nobody reads this")))

	closed := make(chan error, 1)
	go func() { closed <- q.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a peer that stopped reading")
	}
	require.ErrorIs(t, q.Err(), ErrConnectionLost)
	require.ErrorIs(t, q.Send(ctx, []byte("x")), ErrSinkClosed)
}

func TestNewQueuedSinkValidates(t *testing.T) {
	_, err := NewQueuedSink(context.Background(), NewSink(&closingBuffer{}), QueueConfig{})
	require.Error(t, err)
	_, err = NewQueuedSink(context.Background(), NewSink(&closingBuffer{}), QueueConfig{Size: 1, Policy: Policy(7)})
	require.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("drop-oldest")
	require.NoError(t, err)
	assert.Equal(t, DropOldest, p)
	p, err = ParsePolicy("Block")
	require.NoError(t, err)
	assert.Equal(t, Block, p)
	_, err = ParsePolicy("random")
	require.Error(t, err)
}
