package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gorilla/websocket"
	"github.com/xaionaro-go/observability"
)

// FramesPath is the websocket endpoint the sender serves.
const FramesPath = "/frames"

var framesUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func listenWebSocket(ctx context.Context, addr string) (Listener, error) {
	l, err := serveHTTP(ctx, addr, FramesPath, func(l *httpListener, w http.ResponseWriter, r *http.Request) {
		ws, err := framesUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debugf(ctx, "websocket upgrade from %s failed: %v", r.RemoteAddr, err)
			l.release()
			return
		}
		l.deliver(newSenderWSConn(ctx, ws))
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func dialWebSocket(ctx context.Context, addr string) (Conn, error) {
	url := "ws://" + addr + FramesPath
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("dial %s: %w", url, ErrPeerBusy)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newWSConn(ws), nil
}

// wsConn carries a byte stream in binary websocket messages. Message
// boundaries carry no meaning.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader

	// gone is closed once the viewer's side of a sending conn is gone.
	gone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// newSenderWSConn returns a conn that only writes. A background reader
// drains the viewer's control frames, so a close or ping from the viewer
// is handled right away rather than on the next failed write.
func newSenderWSConn(ctx context.Context, ws *websocket.Conn) *wsConn {
	c := newWSConn(ws)
	c.gone = make(chan struct{})
	observability.Go(ctx, func(ctx context.Context) {
		defer close(c.gone)
		c.discardIncoming(ctx)
	})
	return c
}

func (c *wsConn) discardIncoming(ctx context.Context) {
	for {
		_, r, err := c.ws.NextReader()
		if err == nil {
			_, err = io.Copy(io.Discard, r)
		}
		if err != nil {
			logger.Debugf(ctx, "viewer %s went away: %v", c.ws.RemoteAddr(), err)
			_ = c.ws.Close()
			return
		}
	}
}

func (c *wsConn) Read(p []byte) (int, error) {
	if c.gone != nil {
		<-c.gone
		return 0, io.EOF
	}
	for {
		if c.reader == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		if err := c.ws.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.closeErr = err
		}
	})
	return c.closeErr
}
