package transport

import (
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/thorpelawrence/scvr/internal/peer"
)

const (
	// maxMessageSize keeps data channel messages inside what every SCTP
	// implementation accepts.
	maxMessageSize = 16 * 1024

	bufferedHighWater = 1 << 20
	bufferedLowWater  = 512 * 1024
)

// messageChannel is the part of *webrtc.DataChannel the stream adapter
// uses.
type messageChannel interface {
	Send(data []byte) error
	BufferedAmount() uint64
	SetBufferedAmountLowThreshold(th uint64)
	OnBufferedAmountLow(f func())
	OnClose(f func())
	Close() error
}

var _ messageChannel = (*webrtc.DataChannel)(nil)

// messageReader yields the bytes received on the channel. It is attached
// before the channel opens so that no early message is lost.
type messageReader interface {
	io.Reader
	CloseWithError(err error)
}

var _ messageReader = (*peer.Inbox)(nil)

// DataChannelConn exposes an ordered, reliable data channel as a byte
// stream. Writes are split into small messages and wait while too much
// data is buffered.
type DataChannelConn struct {
	dc     messageChannel
	in     messageReader
	remote net.Addr
	onDone func() error

	low      chan struct{}
	closed   chan struct{}
	deadline atomic.Pointer[time.Time]

	closeOnce   sync.Once
	closeErr    error
	closedState sync.Once
}

// NewDataChannelConn wraps dc; reads come from in. onDone, when set, runs
// on Close, e.g. to close the owning peer connection.
func NewDataChannelConn(dc messageChannel, in messageReader, remote net.Addr, onDone func() error) *DataChannelConn {
	c := &DataChannelConn{
		dc:     dc,
		in:     in,
		remote: remote,
		onDone: onDone,
		low:    make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	dc.SetBufferedAmountLowThreshold(bufferedLowWater)
	dc.OnBufferedAmountLow(func() {
		select {
		case c.low <- struct{}{}:
		default:
		}
	})
	dc.OnClose(c.markClosed)
	return c
}

func (c *DataChannelConn) markClosed() {
	c.closedState.Do(func() {
		close(c.closed)
		c.in.CloseWithError(io.EOF)
	})
}

func (c *DataChannelConn) Read(p []byte) (int, error) {
	return c.in.Read(p)
}

func (c *DataChannelConn) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if err := c.waitBuffered(); err != nil {
			return written, err
		}
		chunk := p[:min(len(p), maxMessageSize)]
		if err := c.dc.Send(chunk); err != nil {
			return written, err
		}
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

func (c *DataChannelConn) waitBuffered() error {
	for c.dc.BufferedAmount() > bufferedHighWater {
		var (
			timer   *time.Timer
			timeout <-chan time.Time
		)
		if d := c.deadline.Load(); d != nil && !d.IsZero() {
			remaining := time.Until(*d)
			if remaining <= 0 {
				return os.ErrDeadlineExceeded
			}
			timer = time.NewTimer(remaining)
			timeout = timer.C
		}
		var err error
		select {
		case <-c.low:
		case <-c.closed:
			err = net.ErrClosed
		case <-timeout:
			err = os.ErrDeadlineExceeded
		}
		if timer != nil {
			timer.Stop()
		}
		if err != nil {
			return err
		}
	}
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
		return nil
	}
}

// SetWriteDeadline bounds how long Write waits for the buffer to drain.
func (c *DataChannelConn) SetWriteDeadline(t time.Time) error {
	c.deadline.Store(&t)
	return nil
}

func (c *DataChannelConn) RemoteAddr() net.Addr {
	return c.remote
}

func (c *DataChannelConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.dc.Close()
		c.markClosed()
		if c.onDone != nil {
			if err := c.onDone(); err != nil && c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}

// webrtcAddr names the sender a data channel session was negotiated with.
type webrtcAddr string

func (a webrtcAddr) Network() string { return "webrtc" }

func (a webrtcAddr) String() string { return string(a) }
