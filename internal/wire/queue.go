package wire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

// ErrSinkClosed is returned by Send after Close.
var ErrSinkClosed = errors.New("sink closed")

// Policy decides what Send does when the queue is full.
type Policy int

const (
	// Block waits for the writer to make room.
	Block Policy = iota
	// DropOldest discards the oldest pending frame to make room.
	DropOldest
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "block":
		return Block, nil
	case "drop-oldest", "drop_oldest", "dropoldest", "drop":
		return DropOldest, nil
	}
	return 0, fmt.Errorf("'%s' isn't a valid drop policy (block, drop-oldest)", s)
}

func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropOldest:
		return "drop-oldest"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string { return "policy" }

// DefaultFlushTimeout bounds how long Close waits for queued frames.
const DefaultFlushTimeout = time.Second

// QueueConfig configures a QueuedSink. Size 0 disables the queue.
type QueueConfig struct {
	Size         int
	Policy       Policy
	WriteTimeout time.Duration

	// FlushTimeout bounds the flush in Close; past it the connection is
	// closed under the writer. Zero selects DefaultFlushTimeout.
	FlushTimeout time.Duration
}

// Enabled reports whether frames go through a queue at all.
func (c QueueConfig) Enabled() bool { return c.Size > 0 }

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// QueuedSink decouples the producer from the connection with a bounded
// queue drained by a dedicated writer goroutine. The writer is the only
// goroutine touching the connection.
type QueuedSink struct {
	sink *Sink
	cfg  QueueConfig

	queue chan []byte
	stop  chan struct{}
	done  chan struct{}

	closeOnce sync.Once
	stopClose func() bool

	errLocker sync.Mutex
	err       error

	dropped     atomic.Uint64
	lastDropLog atomic.Int64
}

var _ FrameSender = (*QueuedSink)(nil)

// NewQueuedSink starts the writer goroutine. Cancelling ctx closes the
// connection, which unblocks a writer stuck on a stalled peer.
func NewQueuedSink(ctx context.Context, sink *Sink, cfg QueueConfig) (*QueuedSink, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("queue size must be positive, got %d", cfg.Size)
	}
	if cfg.Policy != Block && cfg.Policy != DropOldest {
		return nil, fmt.Errorf("unknown policy %s", cfg.Policy)
	}
	q := &QueuedSink{
		sink:  sink,
		cfg:   cfg,
		queue: make(chan []byte, cfg.Size),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	q.stopClose = context.AfterFunc(ctx, func() {
		_ = q.sink.Close()
	})
	observability.Go(ctx, func(ctx context.Context) {
		defer close(q.done)
		q.writeLoop(ctx)
	})
	return q, nil
}

func (q *QueuedSink) writeLoop(ctx context.Context) {
	logger.Debugf(ctx, "frame writer started (queue %d, %s)", q.cfg.Size, q.cfg.Policy)
	defer logger.Debugf(ctx, "frame writer stopped")
	for {
		select {
		case <-ctx.Done():
			q.setErr(ctx.Err())
			return
		case <-q.stop:
			for {
				select {
				case payload := <-q.queue:
					if err := q.write(payload); err != nil {
						q.setErr(err)
						return
					}
				default:
					return
				}
			}
		case payload := <-q.queue:
			if err := q.write(payload); err != nil {
				logger.Errorf(ctx, "unable to write a %d byte frame: %v", len(payload), err)
				q.setErr(err)
				return
			}
		}
	}
}

func (q *QueuedSink) write(payload []byte) error {
	if q.cfg.WriteTimeout > 0 {
		if d, ok := q.sink.conn.(writeDeadliner); ok {
			if err := d.SetWriteDeadline(time.Now().Add(q.cfg.WriteTimeout)); err != nil {
				return fmt.Errorf("%w: %w", ErrConnectionLost, err)
			}
		}
	}
	return WriteFrame(q.sink.conn, payload)
}

func (q *QueuedSink) setErr(err error) {
	q.errLocker.Lock()
	defer q.errLocker.Unlock()
	if q.err == nil {
		q.err = err
	}
}

// Err returns the error that stopped the writer, if any.
func (q *QueuedSink) Err() error {
	q.errLocker.Lock()
	defer q.errLocker.Unlock()
	return q.err
}

// Dropped returns how many frames DropOldest discarded so far.
func (q *QueuedSink) Dropped() uint64 {
	return q.dropped.Load()
}

// Send enqueues payload. It returns the writer's error once the writer has
// stopped.
func (q *QueuedSink) Send(ctx context.Context, payload []byte) error {
	select {
	case <-q.stop:
		return ErrSinkClosed
	case <-q.done:
		if err := q.Err(); err != nil {
			return err
		}
		return ErrSinkClosed
	default:
	}

	if q.cfg.Policy == DropOldest {
		for {
			select {
			case q.queue <- payload:
				return nil
			default:
			}
			select {
			case <-q.queue:
				q.onDrop(ctx)
			default:
			}
		}
	}

	select {
	case q.queue <- payload:
		return nil
	case <-q.done:
		if err := q.Err(); err != nil {
			return err
		}
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *QueuedSink) onDrop(ctx context.Context) {
	total := q.dropped.Add(1)
	if shouldLog(&q.lastDropLog, time.Second) {
		logger.Debugf(ctx, "dropped the oldest queued frame (total %d)", total)
	}
}

// Close flushes what is already queued, stops the writer and closes the
// connection. A flush that exceeds FlushTimeout is cut short by closing the
// connection, so Close returns even when the peer stopped reading.
func (q *QueuedSink) Close() error {
	var err error
	q.closeOnce.Do(func() {
		close(q.stop)
		flushTimeout := q.cfg.FlushTimeout
		if flushTimeout <= 0 {
			flushTimeout = DefaultFlushTimeout
		}
		timer := time.NewTimer(flushTimeout)
		defer timer.Stop()

		q.stopClose()
		select {
		case <-q.done:
		case <-timer.C:
			q.setErr(fmt.Errorf("%w: flush did not finish within %v", ErrConnectionLost, flushTimeout))
		}
		cerr := q.sink.Close()
		<-q.done
		if cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	return err
}

func shouldLog(last *atomic.Int64, period time.Duration) bool {
	now := time.Now().UnixNano()
	for {
		prev := last.Load()
		if prev != 0 && time.Duration(now-prev) < period {
			return false
		}
		if last.CompareAndSwap(prev, now) {
			return true
		}
	}
}
