package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/pion/webrtc/v4"
)

// Controller is the viewing side: it creates the frames data channel and
// makes the offer.
type Controller struct {
	pc     *webrtc.PeerConnection
	frames *Frames

	opened   chan struct{}
	openOnce sync.Once
}

// NewController creates a Controller peer manager.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	pc, err := NewPeerConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ordered := true
	dc, err := pc.CreateDataChannel(FramesLabel, &webrtc.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create frames data channel: %w", err)
	}

	inbox := NewInbox(DefaultInboxLimit)
	inbox.Attach(dc)
	ctrl := &Controller{
		pc:     pc,
		frames: &Frames{DataChannel: dc, Inbox: inbox},
		opened: make(chan struct{}),
	}
	dc.OnOpen(func() {
		logger.Debugf(ctx, "frames data channel open")
		ctrl.openOnce.Do(func() { close(ctrl.opened) })
	})
	return ctrl, nil
}

// Offer creates the session offer with all local candidates included.
func (c *Controller) Offer(ctx context.Context) (json.RawMessage, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	return waitLocalDescription(ctx, c.pc, offer)
}

// HandleAnswer processes an incoming SDP answer.
func (c *Controller) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return fmt.Errorf("unmarshal answer: %w", err)
	}
	return c.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (c *Controller) HandleICECandidate(payload json.RawMessage) error {
	return handleICECandidate(c.pc, payload)
}

// FramesChannel waits for the frames data channel to open. Messages that
// arrive before the caller reads the inbox are kept there.
func (c *Controller) FramesChannel(ctx context.Context) (*Frames, error) {
	select {
	case <-c.opened:
		return c.frames, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the peer connection.
func (c *Controller) Close() error {
	return c.pc.Close()
}
