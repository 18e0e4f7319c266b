// Package peer sets up the WebRTC peer connections that carry the frame
// stream over a data channel.
package peer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/pion/webrtc/v4"
)

// FramesLabel is the label of the data channel carrying the frame stream.
const FramesLabel = "frames"

// Config configures a peer connection. No ICE servers means host
// candidates only, which is enough on a LAN.
type Config struct {
	ICEServers []string
}

func (cfg Config) webrtcConfig() webrtc.Configuration {
	var c webrtc.Configuration
	if len(cfg.ICEServers) > 0 {
		c.ICEServers = []webrtc.ICEServer{{URLs: cfg.ICEServers}}
	}
	return c
}

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(ctx context.Context, cfg Config) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg.webrtcConfig())
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Debugf(ctx, "peer connection state: %s", state.String())
	})
	return pc, nil
}

// waitLocalDescription sets desc and waits for ICE gathering to finish so
// the returned description carries every candidate.
func waitLocalDescription(ctx context.Context, pc *webrtc.PeerConnection, desc webrtc.SessionDescription) (json.RawMessage, error) {
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(desc); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return json.Marshal(pc.LocalDescription())
}

func handleICECandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return fmt.Errorf("unmarshal ICE candidate: %w", err)
	}
	return pc.AddICECandidate(candidate)
}
