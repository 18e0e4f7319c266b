package wire

import (
	"context"
	"io"
)

// FrameSender delivers compressed frames to the remote viewer.
type FrameSender interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Sink writes frames directly onto the session's stream. Send blocks until
// the whole frame is written; there is no timeout.
type Sink struct {
	conn io.WriteCloser
}

var _ FrameSender = (*Sink)(nil)

func NewSink(conn io.WriteCloser) *Sink {
	return &Sink{conn: conn}
}

func (s *Sink) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteFrame(s.conn, payload)
}

func (s *Sink) Close() error {
	return s.conn.Close()
}
