package peer

import (
	"bytes"
	"io"
	"sync"

	"github.com/pion/webrtc/v4"
)

// DefaultInboxLimit is how many bytes an Inbox holds before it stalls
// the data channel.
const DefaultInboxLimit = 4 << 20

// Inbox collects the messages of a data channel from the moment the
// channel exists, so nothing is lost before a reader shows up. Read
// returns the messages as one byte stream.
type Inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	chunks [][]byte
	size   int
	limit  int
	err    error
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	in := &Inbox{limit: limit}
	in.cond = sync.NewCond(&in.mu)
	return in
}

// Attach routes every message of dc into the inbox. It has to run before
// the channel opens.
func (in *Inbox) Attach(dc *webrtc.DataChannel) {
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		in.Push(msg.Data)
	})
	dc.OnClose(func() {
		in.CloseWithError(io.EOF)
	})
}

// Push appends a message. It waits while the inbox is full; once the
// inbox is closed messages are discarded.
func (in *Inbox) Push(data []byte) {
	if len(data) == 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	for in.size >= in.limit && in.err == nil {
		in.cond.Wait()
	}
	if in.err != nil {
		return
	}
	in.chunks = append(in.chunks, bytes.Clone(data))
	in.size += len(data)
	in.cond.Broadcast()
}

// Read drains buffered messages first, then returns the close error.
func (in *Inbox) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	for len(in.chunks) == 0 && in.err == nil {
		in.cond.Wait()
	}
	if len(in.chunks) == 0 {
		return 0, in.err
	}
	n := copy(p, in.chunks[0])
	if n == len(in.chunks[0]) {
		in.chunks[0] = nil
		in.chunks = in.chunks[1:]
	} else {
		in.chunks[0] = in.chunks[0][n:]
	}
	in.size -= n
	in.cond.Broadcast()
	return n, nil
}

// CloseWithError ends the stream; nil means io.EOF. Only the first call
// counts.
func (in *Inbox) CloseWithError(err error) {
	if err == nil {
		err = io.EOF
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.err == nil {
		in.err = err
	}
	in.cond.Broadcast()
}

// Frames is the open frames data channel together with its inbox.
type Frames struct {
	*webrtc.DataChannel
	Inbox *Inbox
}
