package transport

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWebRTC(t *testing.T) {
	if os.Getenv("SCVR_TEST_WEBRTC") == "" {
		t.Skip("set SCVR_TEST_WEBRTC=1 to run a real ICE handshake")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ln, err := Listen(ctx, KindWebRTC, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	sender, viewer := exchange(t, ctx, KindWebRTC, ln)

	_, err = Dial(ctx, KindWebRTC, ln.Addr().String())
	require.ErrorIs(t, err, ErrPeerBusy)

	require.NoError(t, sender.Close())
	require.NoError(t, viewer.Close())
}

func TestWebRTCDialRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := Listen(ctx, KindTCP, "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(ctx, KindWebRTC, addr)
	require.Error(t, err)
}
