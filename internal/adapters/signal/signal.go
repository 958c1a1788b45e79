// Package signal is the connection gateway: it upgrades HTTP requests to
// WebSocket and moves text frames between the socket and the coordinator.
package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
)

// Dispatcher receives connection lifecycle and inbound frames.
type Dispatcher interface {
	Connect(ctx context.Context, cid core.ConnID, conn core.SignalConnection) error
	Dispatch(ctx context.Context, cid core.ConnID, data []byte) error
	Disconnect(ctx context.Context, cid core.ConnID) error
}

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

type SignalWSController struct {
	disp     Dispatcher
	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(disp Dispatcher, opts Options) *SignalWSController {
	return &SignalWSController{
		disp: disp,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(opts.AllowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header, which are not
// sent by browsers.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// WsSignalConn queues outbound frames for the write pump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close stops the write pump, which then closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	cid := core.NewConnID()
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	if err := ctl.disp.Connect(ctx, cid, conn); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("coordinator rejected connection")
		_ = ws.Close()
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("remote", c.ClientIP()).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cid, conn)
}
