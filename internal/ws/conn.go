package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

// conn is one websocket client as the hub sees it. Frames are queued on a
// bounded outbox; a client that lets it fill up is disconnected.
type conn struct {
	id  string
	ws  *websocket.Conn
	out chan wire.ServerMessage

	mu     sync.Mutex
	closed bool
	code   websocket.StatusCode
	reason string
	done   chan struct{}
}

func newConn(id string, ws *websocket.Conn, outbox int) *conn {
	if outbox <= 0 {
		outbox = 16
	}
	return &conn{
		id:   id,
		ws:   ws,
		out:  make(chan wire.ServerMessage, outbox),
		done: make(chan struct{}),
	}
}

func (c *conn) ID() string { return c.id }

func (c *conn) Send(m wire.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.out <- m:
		return true
	default:
		c.closeLocked(websocket.StatusPolicyViolation, "slow consumer")
		return false
	}
}

func (c *conn) Close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(websocket.StatusNormalClosure, reason)
}

func (c *conn) closeLocked(code websocket.StatusCode, reason string) {
	if c.closed {
		return
	}
	c.closed = true
	c.code, c.reason = code, reason
	close(c.done)
}

// writeLoop owns all writes to ws. On close it flushes what is already
// queued, then sends the close frame.
func (c *conn) writeLoop(ctx context.Context, timeout time.Duration, log *zap.Logger) {
	write := func(m wire.ServerMessage) bool {
		wctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := wsjson.Write(wctx, c.ws, m); err != nil {
			log.Debug("write failed", zap.String("conn", c.id), zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case m := <-c.out:
			if !write(m) {
				c.Close("write failed")
				_ = c.ws.CloseNow()
				return
			}

		case <-c.done:
			if !c.flush(write) {
				_ = c.ws.CloseNow()
				return
			}
			_ = c.ws.Close(c.code, c.reason)
			return
		}
	}
}

func (c *conn) flush(write func(wire.ServerMessage) bool) bool {
	for {
		select {
		case m := <-c.out:
			if !write(m) {
				return false
			}
		default:
			return true
		}
	}
}
