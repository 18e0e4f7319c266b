package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

// httpListener serves one upgrade endpoint and hands out the single
// session it produces. Upgraded connections outlive the HTTP server.
type httpListener struct {
	ctx context.Context
	ln  net.Listener
	srv *http.Server

	conns    chan Conn
	serveErr chan error
	claimed  atomic.Bool
}

func serveHTTP(ctx context.Context, addr, path string, handler func(l *httpListener, w http.ResponseWriter, r *http.Request)) (*httpListener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBind, addr, err)
	}
	l := &httpListener{
		ctx:      ctx,
		ln:       ln,
		conns:    make(chan Conn, 1),
		serveErr: make(chan error, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		logger.Debugf(ctx, "%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		if !l.claimed.CompareAndSwap(false, true) {
			http.Error(w, ErrPeerBusy.Error(), http.StatusConflict)
			return
		}
		handler(l, w, r)
	})
	l.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	observability.Go(ctx, func(ctx context.Context) {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.serveErr <- err
		}
	})
	return l, nil
}

// release frees the endpoint after a failed handshake.
func (l *httpListener) release() {
	l.claimed.Store(false)
}

func (l *httpListener) deliver(c Conn) {
	select {
	case l.conns <- c:
	default:
		_ = c.Close()
	}
}

func (l *httpListener) Accept(ctx context.Context) (Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case err := <-l.serveErr:
		return nil, fmt.Errorf("%w: %w", ErrAccept, err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *httpListener) Addr() net.Addr { return l.ln.Addr() }

func (l *httpListener) Close() error {
	return l.srv.Close()
}
