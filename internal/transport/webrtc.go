package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"

	"github.com/thorpelawrence/scvr/internal/peer"
	"github.com/thorpelawrence/scvr/internal/signaling"
)

// SignalPath is the signaling endpoint the sender serves.
const SignalPath = "/signal"

const handshakeTimeout = 30 * time.Second

func listenWebRTC(ctx context.Context, addr string, o options) (Listener, error) {
	cfg := peer.Config{ICEServers: o.iceServers}
	l, err := serveHTTP(ctx, addr, SignalPath, func(l *httpListener, w http.ResponseWriter, r *http.Request) {
		if err := acceptWebRTC(l, w, r, cfg); err != nil {
			logger.Errorf(ctx, "webrtc handshake with %s failed: %v", r.RemoteAddr, err)
			l.release()
		}
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func acceptWebRTC(l *httpListener, w http.ResponseWriter, r *http.Request, cfg peer.Config) error {
	ctx := l.ctx
	host, err := peer.NewHost(ctx, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}

	var sig *signaling.Client
	sig, err = signaling.Upgrade(w, r, signaling.Handler{
		OnOffer: func(payload json.RawMessage) {
			answer, err := host.HandleOffer(ctx, payload)
			if err != nil {
				logger.Errorf(ctx, "unable to answer the offer: %v", err)
				_ = sig.SendError(err.Error())
				return
			}
			if err := sig.SendAnswer(answer); err != nil {
				logger.Errorf(ctx, "unable to send the answer: %v", err)
			}
		},
		OnICECandidate: func(payload json.RawMessage) {
			if err := host.HandleICECandidate(payload); err != nil {
				logger.Debugf(ctx, "handle ICE candidate: %v", err)
			}
		},
		OnError: func(msg string) {
			logger.Errorf(ctx, "viewer reported a signaling error: %s", msg)
		},
	})
	if err != nil {
		_ = host.Close()
		return err
	}
	sig.Start(ctx)

	remote := webrtcAddr(r.RemoteAddr)
	observability.Go(ctx, func(ctx context.Context) {
		defer sig.Close()
		waitCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
		defer cancel()

		frames, err := host.FramesChannel(waitCtx)
		if err != nil {
			logger.Errorf(ctx, "no frames data channel from %s: %v", remote, err)
			_ = host.Close()
			l.release()
			return
		}
		l.deliver(NewDataChannelConn(frames, frames.Inbox, remote, host.Close))
	})
	return nil
}

func dialWebRTC(ctx context.Context, addr string, o options) (Conn, error) {
	ctrl, err := peer.NewController(ctx, peer.Config{ICEServers: o.iceServers})
	if err != nil {
		return nil, err
	}
	conn, err := negotiate(ctx, addr, ctrl)
	if err != nil {
		_ = ctrl.Close()
		return nil, err
	}
	return conn, nil
}

func negotiate(ctx context.Context, addr string, ctrl *peer.Controller) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	answers := make(chan json.RawMessage, 1)
	remoteErrs := make(chan error, 1)
	sig := signaling.NewClient("ws://"+addr+SignalPath, signaling.Handler{
		OnAnswer: func(payload json.RawMessage) {
			select {
			case answers <- payload:
			default:
			}
		},
		OnICECandidate: func(payload json.RawMessage) {
			_ = ctrl.HandleICECandidate(payload)
		},
		OnError: func(msg string) {
			select {
			case remoteErrs <- fmt.Errorf("sender: %s", msg):
			default:
			}
		},
	})
	if err := sig.Connect(ctx); err != nil {
		var dialErr *signaling.DialError
		if errors.As(err, &dialErr) && dialErr.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("dial %s: %w", addr, ErrPeerBusy)
		}
		return nil, err
	}
	defer sig.Close()

	offer, err := ctrl.Offer(ctx)
	if err != nil {
		return nil, err
	}
	if err := sig.SendOffer(offer); err != nil {
		return nil, fmt.Errorf("send offer: %w", err)
	}

	select {
	case answer := <-answers:
		if err := ctrl.HandleAnswer(answer); err != nil {
			return nil, err
		}
	case err := <-remoteErrs:
		return nil, err
	case <-sig.Done():
		return nil, errors.New("signaling closed before the answer arrived")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	frames, err := ctrl.FramesChannel(ctx)
	if err != nil {
		return nil, err
	}
	return NewDataChannelConn(frames, frames.Inbox, webrtcAddr(addr), ctrl.Close), nil
}
