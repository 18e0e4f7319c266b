// Package transport accepts exactly one viewer and hands the session a
// byte stream to write frames onto.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var (
	// ErrBind means the listening address could not be bound.
	ErrBind = errors.New("bind failed")
	// ErrAccept means no viewer connection could be accepted.
	ErrAccept = errors.New("accept failed")
	// ErrPeerBusy means the sender already serves a viewer.
	ErrPeerBusy = errors.New("sender already has a viewer")
)

// Kind selects how the byte stream is carried.
type Kind int

const (
	KindTCP Kind = iota
	KindWebSocket
	KindWebRTC
)

var kindNames = map[Kind]string{
	KindTCP:       "tcp",
	KindWebSocket: "websocket",
	KindWebRTC:    "webrtc",
}

func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "ws" {
		return KindWebSocket, nil
	}
	for k, name := range kindNames {
		if s == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("'%s' isn't a valid transport (tcp, websocket, webrtc)", s)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Set implements pflag.Value.
func (k *Kind) Set(s string) error {
	v, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Type implements pflag.Value.
func (k *Kind) Type() string { return "transport" }

// Conn is one viewer session's byte stream.
type Conn interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
}

// Listener waits for the single viewer of a session.
type Listener interface {
	// Accept blocks until a viewer connects or ctx ends.
	Accept(ctx context.Context) (Conn, error)
	// Addr is the bound address; useful with port 0.
	Addr() net.Addr
	Close() error
}

type options struct {
	iceServers []string
}

// Option customizes Listen and Dial.
type Option func(*options)

// WithICEServers sets STUN/TURN URLs for the webrtc transport.
func WithICEServers(urls ...string) Option {
	return func(o *options) { o.iceServers = append(o.iceServers, urls...) }
}

func collectOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Listen binds addr for kind.
func Listen(ctx context.Context, kind Kind, addr string, opts ...Option) (Listener, error) {
	o := collectOptions(opts)
	var (
		l   Listener
		err error
	)
	switch kind {
	case KindTCP:
		l, err = listenTCP(ctx, addr)
	case KindWebSocket:
		l, err = listenWebSocket(ctx, addr)
	case KindWebRTC:
		l, err = listenWebRTC(ctx, addr, o)
	default:
		err = fmt.Errorf("unknown transport %s", kind)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Dial connects to a sender listening on addr.
func Dial(ctx context.Context, kind Kind, addr string, opts ...Option) (Conn, error) {
	o := collectOptions(opts)
	switch kind {
	case KindTCP:
		return dialTCP(ctx, addr)
	case KindWebSocket:
		return dialWebSocket(ctx, addr)
	case KindWebRTC:
		return dialWebRTC(ctx, addr, o)
	}
	return nil, fmt.Errorf("unknown transport %s", kind)
}
