package peer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/pion/webrtc/v4"
)

// Host is the sending side: it answers the viewer's offer and receives
// the frames data channel the viewer created.
type Host struct {
	pc       *webrtc.PeerConnection
	framesCh chan *Frames
}

// NewHost creates a Host peer manager.
func NewHost(ctx context.Context, cfg Config) (*Host, error) {
	pc, err := NewPeerConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}

	h := &Host{
		pc:       pc,
		framesCh: make(chan *Frames, 1),
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		logger.Debugf(ctx, "data channel received: %s", dc.Label())
		if dc.Label() != FramesLabel {
			_ = dc.Close()
			return
		}
		frames := &Frames{DataChannel: dc, Inbox: NewInbox(DefaultInboxLimit)}
		frames.Inbox.Attach(dc)
		dc.OnOpen(func() {
			logger.Debugf(ctx, "frames data channel open")
			select {
			case h.framesCh <- frames:
			default:
			}
		})
	})

	return h, nil
}

// HandleOffer processes the viewer's offer and returns the answer with all
// local candidates included.
func (h *Host) HandleOffer(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return nil, fmt.Errorf("unmarshal offer: %w", err)
	}
	if err := h.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}
	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	return waitLocalDescription(ctx, h.pc, answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (h *Host) HandleICECandidate(payload json.RawMessage) error {
	return handleICECandidate(h.pc, payload)
}

// FramesChannel waits for the frames data channel to open.
func (h *Host) FramesChannel(ctx context.Context) (*Frames, error) {
	select {
	case frames := <-h.framesCh:
		return frames, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the peer connection.
func (h *Host) Close() error {
	return h.pc.Close()
}
