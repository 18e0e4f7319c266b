// Package signaling exchanges WebRTC session descriptions between the
// sender and the viewer over a WebSocket. The sender serves the endpoint;
// there is no third-party signaling server.
package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gorilla/websocket"
	"github.com/xaionaro-go/observability"
)

const pingInterval = 25 * time.Second

// ErrNotConnected is returned when sending before Connect.
var ErrNotConnected = errors.New("not connected")

// DialError is a refused signaling handshake.
type DialError struct {
	StatusCode int
	Err        error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("signaling dial: HTTP %d: %v", e.StatusCode, e.Err)
}

func (e *DialError) Unwrap() error { return e.Err }

// Handler callbacks for incoming signaling messages. They run on the read
// goroutine, one at a time.
type Handler struct {
	OnOffer        func(payload json.RawMessage)
	OnAnswer       func(payload json.RawMessage)
	OnICECandidate func(payload json.RawMessage)
	OnError        func(msg string)
}

// Client is one end of a signaling WebSocket.
type Client struct {
	url     string
	handler Handler

	conn      *websocket.Conn
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a signaling client that dials url on Connect.
func NewClient(url string, handler Handler) *Client {
	return &Client{
		url:     url,
		handler: handler,
		done:    make(chan struct{}),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Upgrade turns an HTTP request into the serving end of a signaling
// connection. Call Start to begin dispatching messages.
func Upgrade(w http.ResponseWriter, r *http.Request, handler Handler) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("signaling upgrade: %w", err)
	}
	return &Client{
		url:     r.URL.String(),
		handler: handler,
		conn:    conn,
		done:    make(chan struct{}),
	}, nil
}

// Connect dials the signaling endpoint and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return &DialError{StatusCode: resp.StatusCode, Err: err}
		}
		return fmt.Errorf("signaling dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.Start(ctx)
	return nil
}

// Start runs the read and keepalive loops until Close or ctx ends.
func (c *Client) Start(ctx context.Context) {
	observability.Go(ctx, func(ctx context.Context) {
		c.readLoop(ctx)
	})
	observability.Go(ctx, func(ctx context.Context) {
		c.pingLoop(ctx)
	})
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts down the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			err = c.conn.Close()
		}
	})
	return err
}

// SendOffer sends an SDP offer.
func (c *Client) SendOffer(payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Payload: payload})
}

// SendAnswer sends an SDP answer.
func (c *Client) SendAnswer(payload json.RawMessage) error {
	return c.send(Message{Type: TypeAnswer, Payload: payload})
}

// SendError reports a failure to the other end.
func (c *Client) SendError(msg string) error {
	return c.send(Message{Type: TypeError, Msg: msg})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.Close()
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debugf(ctx, "signaling read error: %v", err)
				}
			}
			return
		}
		c.dispatch(ctx, msg)
	}
}

func (c *Client) dispatch(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeOffer:
		if c.handler.OnOffer != nil {
			c.handler.OnOffer(msg.Payload)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.Payload)
		}
	case TypeICECandidate:
		if c.handler.OnICECandidate != nil {
			c.handler.OnICECandidate(msg.Payload)
		}
	case TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePing:
		_ = c.send(Message{Type: TypePong, Timestamp: msg.Timestamp})
	case TypePong:
		// heartbeat response, nothing to do
	default:
		logger.Debugf(ctx, "ignoring signaling message of type '%s'", msg.Type)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()})
		}
	}
}
